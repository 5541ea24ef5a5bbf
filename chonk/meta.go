package chonk

import (
	"encoding/json"

	"github.com/ndlib/chonk/store"
)

// Meta is the metadata record kept for each collection. A collection which
// has never been written to has no record in the store; reading its
// metadata gives the zero value.
type Meta struct {
	// Count is the number of chunks in the collection. Chunk indexes are
	// contiguous over [0, Count).
	Count uint32 `json:"count"`

	// TotalBytes is the sum of the lengths of every chunk.
	TotalBytes uint32 `json:"total_bytes"`

	// Version is incremented exactly once by every successful Push, Set,
	// Insert, and Remove. Clear deletes the record, resetting the version
	// to 0. It is intended for optimistic concurrency detection by
	// callers; nothing in this package compares versions.
	Version uint32 `json:"version"`
}

// Meta returns the metadata record for this collection. An absent record is
// not an error: the zero value is returned.
func (c *Collection) Meta() (Meta, error) {
	raw, err := c.s.Get(metaKey(c.id))
	if err == store.ErrNotExist {
		return Meta{}, nil
	}
	if err != nil {
		return Meta{}, err
	}
	var m Meta
	err = json.Unmarshal(raw, &m)
	return m, err
}

// saveMeta writes the metadata record, replacing any previous one.
func (c *Collection) saveMeta(m Meta) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.s.Set(metaKey(c.id), raw)
}

// deleteMeta removes the metadata record. Deleting an absent record is not
// an error.
func (c *Collection) deleteMeta() error {
	return c.s.Delete(metaKey(c.id))
}
