package chonk

// An Iter steps through the chunks of a collection in index order. The
// chunk count is captured once when the Iter is made, so the length of the
// sequence is known up front; mutating the collection while iterating
// leaves the positional correspondence undefined. Get a fresh Iter to
// start over.
//
// The usage follows bufio.Scanner:
//
//	it, err := c.Iter()
//	...
//	for it.Next() {
//		use(it.Chunk())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iter struct {
	c     *Collection
	count uint32 // captured at creation
	index uint32 // next index to read
	chunk []byte
	err   error
}

// Iter returns an iterator over the chunks currently in the collection.
func (c *Collection) Iter() (*Iter, error) {
	meta, err := c.Meta()
	if err != nil {
		return nil, err
	}
	return &Iter{c: c, count: meta.Count}, nil
}

// Next advances to the next chunk. It returns false when the sequence is
// exhausted or a store read failed; the two are told apart with Err.
func (it *Iter) Next() bool {
	it.chunk = nil
	if it.err != nil || it.index >= it.count {
		return false
	}
	chunk, found, err := it.c.Get(it.index)
	if err != nil {
		it.err = err
		return false
	}
	if !found {
		// A gap means the collection was mutated underneath us. End the
		// sequence early rather than skipping.
		it.index = it.count
		return false
	}
	it.index++
	it.chunk = chunk
	return true
}

// Chunk returns the chunk read by the last call to Next.
func (it *Iter) Chunk() []byte {
	return it.chunk
}

// Err returns the first store error hit by Next, if any.
func (it *Iter) Err() error {
	return it.err
}

// Len returns the number of chunks remaining in the sequence.
func (it *Iter) Len() int {
	return int(it.count - it.index)
}

// Assemble concatenates every chunk, in index order, into one byte slice.
// Both the time and the peak memory are O(TotalBytes), so this is
// unsuitable for very large collections; prefer Iter where the chunks can
// be consumed piecewise.
func (c *Collection) Assemble() ([]byte, error) {
	meta, err := c.Meta()
	if err != nil {
		return nil, err
	}
	result := make([]byte, 0, meta.TotalBytes)
	it := &Iter{c: c, count: meta.Count}
	for it.Next() {
		result = append(result, it.Chunk()...)
	}
	return result, it.Err()
}
