package chonk

import (
	"fmt"
	"strings"
)

const (
	// There are two kinds of information in the store: collection metadata
	// and the chunks themselves. They are distinguished by the prefix of
	// their keys: metadata keys start with "md" and chunk keys start
	// with "f". Since the prefixes differ, a chunk key can never collide
	// with a metadata key.
	metaKeyPrefix  = "md"
	chunkKeyPrefix = "f"
)

// metaKey returns the store key holding the metadata record of the
// collection id.
func metaKey(id string) string {
	return metaKeyPrefix + id
}

// chunkKey returns the store key holding chunk index of the collection id.
// The index is fixed width, so chunk keys sort in index order and any
// uint32 fits.
func chunkKey(id string, index uint32) string {
	return fmt.Sprintf("%s%s+%010d", chunkKeyPrefix, id, index)
}

// isIDValid reports whether id may be used as a collection id. Ids must be
// non-empty and must not contain '+', which separates the id from the index
// in chunk keys. (Stores may impose further restrictions on key characters;
// see the store package.)
func isIDValid(id string) bool {
	return id != "" && !strings.Contains(id, "+")
}
