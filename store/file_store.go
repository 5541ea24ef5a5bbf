package store

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FileSystem implements the simple file system based store. The keys are
// used as file names, spread over a two-level directory fan-out to keep any
// single directory from growing too large. This means keys should not
// contain a forward slash character '/'. Also, if you want the files to have
// a specific file extension, you need to add it to your key.
type FileSystem struct {
	root string
}

const (
	// the subdir to store files while they are being written to.
	scratchdir = "scratch"
)

var (
	// make sure it implements the Store interface
	_ Store  = &FileSystem{}
	_ Lister = &FileSystem{}

	// ErrKeyContainsSlash means the key provided contains a forward slash '/'
	ErrKeyContainsSlash = errors.New("Key contains forward slash")

	// ErrKeyContainsNonUnicode means the key provided contains a Non Unicode Rune
	ErrKeyContainsNonUnicode = errors.New("Key contains Non-Unicode character")

	// ErrKeyContainsWhiteSpace means the key provided contains WhiteSpace
	ErrKeyContainsWhiteSpace = errors.New("Key contains White Space")

	// ErrKeyContainsControlChar means the key provided contains Control Characters
	ErrKeyContainsControlChar = errors.New("Key contains Control Characters")
)

// NewFileSystem creates a new FileSystem store based at the given root path.
func NewFileSystem(root string) *FileSystem {
	return &FileSystem{root: root}
}

// Get returns the contents of the file backing the given key.
func (s *FileSystem) Get(key string) ([]byte, error) {
	if strings.Contains(key, "/") {
		return nil, ErrKeyContainsSlash
	}
	fname := filepath.Join(s.root, itemSubdir(key), key)
	data, err := os.ReadFile(fname)
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	}
	return data, err
}

// Set saves value under the given key, replacing any previous value. The
// data is first written to a scratch file and then moved into place, so a
// crash partway through a write never leaves a truncated entry at the key.
func (s *FileSystem) Set(key string, value []byte) error {
	err := isKeyValid(key)
	if err != nil {
		return err
	}
	target, err := s.setupSubDir(itemSubdir(key), key)
	if err != nil {
		return err
	}
	temp, err := s.setupSubDir(scratchdir, key)
	if err != nil {
		return err
	}
	err = os.WriteFile(temp, value, 0666)
	if err != nil {
		return err
	}
	return os.Rename(temp, target)
}

// Delete the given key from the store. It is not an error if the key doesn't
// exist.
func (s *FileSystem) Delete(key string) error {
	if strings.Contains(key, "/") {
		return ErrKeyContainsSlash
	}
	fname := filepath.Join(s.root, itemSubdir(key), key)
	err := os.Remove(fname)
	// don't report a missing file as an error
	if err != nil && os.IsNotExist(err) {
		err = nil
	}
	return err
}

// ListPrefix returns a list of all the keys beginning with the given prefix.
func (s *FileSystem) ListPrefix(prefix string) ([]string, error) {
	var glob string
	switch len(prefix) {
	case 0:
		glob = "*/*"
	case 1:
		glob = prefix + "*/*"
	case 2:
		glob = prefix[0:2] + "/*"
	case 3:
		glob = prefix[0:2] + "/" + prefix[2:3] + "*"
	default:
		glob = prefix[0:2] + "/" + prefix[2:4]
	}
	glob = filepath.Join(s.root, glob, prefix+"*")
	result, err := filepath.Glob(glob)
	if err == nil {
		for i := range result {
			result[i] = path.Base(result[i])
		}
	}
	return result, err
}

// setupSubDir makes sure the given subdirectory exists under the root, and
// then returns the absolute path to the keyed file, and an optional error.
func (s *FileSystem) setupSubDir(subdir, key string) (string, error) {
	dir := filepath.Join(s.root, subdir)
	err := os.MkdirAll(dir, 0775)
	return filepath.Join(dir, key), err
}

// Given an item key, return the subdirectory the item's file are stored in
// e.g. "abcd123" returns "ab/cd/"
func itemSubdir(key string) string {
	var result string
	switch len(key) {
	case 0:
		result = "./"
	case 1, 2:
		result = key + "/"
	case 3:
		result = key[0:2] + "/" + key[2:3] + "/"
	default:
		result = key[0:2] + "/" + key[2:4] + "/"
	}
	return result
}

// Some Simple Item Key Validations
func isKeyValid(key string) error {
	// Valid Unicode
	if !utf8.ValidString(key) {
		return ErrKeyContainsNonUnicode
	}

	// No Slashes
	if strings.Contains(key, "/") {
		return ErrKeyContainsSlash
	}

	for _, r := range key {
		// No White Space
		if unicode.IsSpace(r) {
			return ErrKeyContainsWhiteSpace
		}

		// No Control Characters
		if unicode.IsControl(r) {
			return ErrKeyContainsControlChar
		}
	}

	return nil
}
