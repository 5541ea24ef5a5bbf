/*
Package chonk provides an ordered, randomly addressable collection of byte
chunks kept in a key-value store. It exists because such stores usually cap
the size of a single entry; content larger than the cap must be split into
chunks, each chunk written as its own store entry, with a small metadata
record tracking the collection's shape.

Chunks are addressed by a zero-based index which is always contiguous over
[0, count). Because a chunk's identity is purely positional, Insert and
Remove re-key every chunk past the target index; they cost
O(count - index) store operations, so hot paths should stay at the tail
with Push and Append.

Every mutation bumps a version counter in the metadata record. Callers
wanting compare-and-set behavior across invocations can read the version,
do their work, and check for a conflict afterward; nothing in this package
compares versions for them.

A Collection is not safe for concurrent writers. The package assumes
whatever transaction or locking boundary the surrounding system has keeps
invocations from interleaving. Index bounds are checked before anything is
written, so a contract violation leaves no partial state; if a store
operation fails partway through a mutation the error is returned as-is and
the enclosing transaction is responsible for rolling back.

Multiple collections may share one store: all keys are namespaced by the
collection id.
*/
package chonk

import (
	"errors"

	"github.com/ndlib/chonk/store"
)

var (
	// ErrBadID means the collection id is empty or contains '+'.
	ErrBadID = errors.New("bad collection id")

	// ErrOutOfBounds is returned by Set for an index at or past the chunk
	// count, and by Insert for an index past it. These are caller
	// contract violations, and are hard errors rather than no-ops so a
	// buggy caller cannot silently corrupt the positional invariants.
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrBadChunkSize is returned by WriteChunked for a zero chunk size.
	ErrBadChunkSize = errors.New("chunk size must be positive")
)

// Collection is a named sequence of chunks in a store. The zero value is
// not usable; get one from Open. Collections are cheap: the struct holds
// only the store handle and the id, and every operation reads the metadata
// record fresh.
type Collection struct {
	s  store.Store
	id string
}

// Open returns the collection named id kept in s, creating nothing: a
// collection exists in the store only once it has been written to.
func Open(s store.Store, id string) (*Collection, error) {
	if !isIDValid(id) {
		return nil, ErrBadID
	}
	return &Collection{s: s, id: id}, nil
}

// ID returns the collection id.
func (c *Collection) ID() string {
	return c.id
}

// Count returns the number of chunks.
func (c *Collection) Count() (uint32, error) {
	meta, err := c.Meta()
	return meta.Count, err
}

// TotalBytes returns the sum of the lengths of every chunk.
func (c *Collection) TotalBytes() (uint32, error) {
	meta, err := c.Meta()
	return meta.TotalBytes, err
}

// IsEmpty reports whether the collection has no chunks.
func (c *Collection) IsEmpty() (bool, error) {
	meta, err := c.Meta()
	return meta.Count == 0, err
}

// Get returns the chunk at the given index. There being no chunk at the
// index is not an error: Get reports it with a false second return, which
// also tells a present zero-length chunk apart from an absent one.
func (c *Collection) Get(index uint32) ([]byte, bool, error) {
	chunk, err := c.s.Get(chunkKey(c.id, index))
	if err == store.ErrNotExist {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return chunk, true, nil
}

// GetRange returns the chunks with indexes in [start, start+n), in index
// order. Indexes past the end of the collection are simply omitted, as is
// any index with no chunk.
func (c *Collection) GetRange(start, n uint32) ([][]byte, error) {
	meta, err := c.Meta()
	if err != nil {
		return nil, err
	}
	end := start + n
	if end < start || end > meta.Count {
		// clamp, also handling uint32 wraparound of start+n
		end = meta.Count
	}
	var result [][]byte
	for i := start; i < end; i++ {
		chunk, found, err := c.Get(i)
		if err != nil {
			return nil, err
		}
		if found {
			result = append(result, chunk)
		}
	}
	return result, nil
}

// Push appends data as a new chunk at the end of the collection and
// returns its index.
func (c *Collection) Push(data []byte) (uint32, error) {
	meta, err := c.Meta()
	if err != nil {
		return 0, err
	}
	index := meta.Count
	err = c.s.Set(chunkKey(c.id, index), data)
	if err != nil {
		return 0, err
	}
	meta.Count++
	meta.TotalBytes += uint32(len(data))
	meta.Version++
	return index, c.saveMeta(meta)
}

// Set replaces the chunk at the given index, which must already hold a
// chunk: ErrOutOfBounds is returned for an index at or past the count.
func (c *Collection) Set(index uint32, data []byte) error {
	meta, err := c.Meta()
	if err != nil {
		return err
	}
	if index >= meta.Count {
		return ErrOutOfBounds
	}
	key := chunkKey(c.id, index)
	old, err := c.s.Get(key)
	if err == nil {
		meta.TotalBytes -= uint32(len(old))
	} else if err != store.ErrNotExist {
		return err
	}
	meta.TotalBytes += uint32(len(data))
	meta.Version++
	err = c.s.Set(key, data)
	if err != nil {
		return err
	}
	return c.saveMeta(meta)
}

// Insert places data at the given index, shifting the chunks at [index,
// count) up one slot. Index count is allowed and is equivalent to Push;
// anything past it is ErrOutOfBounds.
func (c *Collection) Insert(index uint32, data []byte) error {
	meta, err := c.Meta()
	if err != nil {
		return err
	}
	if index > meta.Count {
		return ErrOutOfBounds
	}

	// Re-key the shifted chunks highest index first, so no chunk is
	// overwritten before it has been read.
	for i := meta.Count; i > index; i-- {
		chunk, err := c.s.Get(chunkKey(c.id, i-1))
		if err == store.ErrNotExist {
			continue
		}
		if err != nil {
			return err
		}
		err = c.s.Set(chunkKey(c.id, i), chunk)
		if err != nil {
			return err
		}
	}

	err = c.s.Set(chunkKey(c.id, index), data)
	if err != nil {
		return err
	}
	meta.Count++
	meta.TotalBytes += uint32(len(data))
	meta.Version++
	return c.saveMeta(meta)
}

// Remove takes out the chunk at the given index, shifting the chunks at
// [index+1, count) down one slot, and returns the removed bytes. An index
// at or past the count is not an error; it is reported with a false second
// return and the collection is left unchanged.
func (c *Collection) Remove(index uint32) ([]byte, bool, error) {
	meta, err := c.Meta()
	if err != nil {
		return nil, false, err
	}
	if index >= meta.Count {
		return nil, false, nil
	}

	removed, found, err := c.Get(index)
	if err != nil {
		return nil, false, err
	}

	// Re-key the shifted chunks lowest index first, so no chunk is
	// overwritten before it has been read.
	for i := index + 1; i < meta.Count; i++ {
		chunk, err := c.s.Get(chunkKey(c.id, i))
		if err == store.ErrNotExist {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		err = c.s.Set(chunkKey(c.id, i-1), chunk)
		if err != nil {
			return nil, false, err
		}
	}

	// the last slot is now vacant
	err = c.s.Delete(chunkKey(c.id, meta.Count-1))
	if err != nil {
		return nil, false, err
	}

	if found {
		meta.TotalBytes -= uint32(len(removed))
	}
	meta.Count--
	meta.Version++
	err = c.saveMeta(meta)
	if err != nil {
		return nil, false, err
	}
	return removed, found, nil
}

// Clear deletes every chunk and the metadata record, returning the
// collection to its pristine state: afterward Meta gives the zero value,
// version included. Clearing an absent collection is not an error.
func (c *Collection) Clear() error {
	meta, err := c.Meta()
	if err != nil {
		return err
	}
	for i := uint32(0); i < meta.Count; i++ {
		err = c.s.Delete(chunkKey(c.id, i))
		if err != nil {
			return err
		}
	}
	return c.deleteMeta()
}

// WriteChunked replaces the collection's contents with content split into
// chunks of exactly chunkSize bytes, except the final chunk which holds
// the remainder. Empty content leaves the collection pristine. The final
// state depends only on content and chunkSize, never on what was there
// before.
func (c *Collection) WriteChunked(content []byte, chunkSize uint32) error {
	if chunkSize == 0 {
		return ErrBadChunkSize
	}
	err := c.Clear()
	if err != nil {
		return err
	}
	size := int(chunkSize)
	for off := 0; off < len(content); off += size {
		end := off + size
		if end > len(content) {
			end = len(content)
		}
		_, err = c.Push(content[off:end])
		if err != nil {
			return err
		}
	}
	return nil
}

// Append adds content at the end of the collection. If the last chunk has
// room, meaning its length plus len(content) stays within maxChunkSize,
// the content is merged into it with a single Set; otherwise content is
// pushed as a new chunk. An empty collection always gets content as its
// first chunk.
//
// Append never splits content: if content alone exceeds maxChunkSize it is
// still stored whole, as one oversized chunk. Keeping individual pieces
// under the backing store's entry limit is the caller's job.
func (c *Collection) Append(content []byte, maxChunkSize uint32) error {
	meta, err := c.Meta()
	if err != nil {
		return err
	}
	if meta.Count == 0 {
		_, err = c.Push(content)
		return err
	}

	last := meta.Count - 1
	lastChunk, found, err := c.Get(last)
	if err != nil {
		return err
	}
	if found && len(lastChunk)+len(content) <= int(maxChunkSize) {
		combined := make([]byte, 0, len(lastChunk)+len(content))
		combined = append(combined, lastChunk...)
		combined = append(combined, content...)
		return c.Set(last, combined)
	}
	_, err = c.Push(content)
	return err
}
