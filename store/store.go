// Package store provides a simple, goroutine safe key-value interface over
// byte slices. It is the persistence boundary for the chonk package: values
// are point reads and writes, and each backend has some per-entry size limit
// which callers respect when choosing chunk sizes.
//
// Probably the most important implementations are Memory and FileSystem. The
// remote backends (S3, Redis, MySQL) are useful when the data needs to
// outlive a single machine.
//
// Since the FileSystem store uses the key as a file name, keys should not
// contain forbidden filesystem characters, such as '/'.
package store

import (
	"errors"
)

// ErrNotExist is returned by Get when there is no entry for the key.
// A missing key is an expected outcome, not a failure; the sentinel only
// carries the distinction between "no entry" and "entry of zero length".
var ErrNotExist = errors.New("key does not exist")

// Store defines the basic key-value store. Set is an unconditional
// overwrite, and Delete is idempotent.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Lister is implemented by stores which can enumerate their keys. It is
// optional; code needing it should type assert and degrade gracefully.
type Lister interface {
	ListPrefix(prefix string) ([]string, error)
}
