package chonk

import (
	"bytes"
	"testing"

	"github.com/ndlib/chonk/store"
)

func open(t *testing.T, s store.Store, id string) *Collection {
	c, err := Open(s, id)
	if err != nil {
		t.Fatalf("Open(%s): received %v, expected nil", id, err)
	}
	return c
}

// checkMeta compares the collection's metadata record with what the test
// expects, and then verifies the record against the chunks actually in the
// store: Count live chunks, no chunk past the end, and TotalBytes equal to
// the sum of the chunk lengths.
func checkMeta(t *testing.T, c *Collection, count, total, version uint32) {
	t.Helper()
	meta, err := c.Meta()
	if err != nil {
		t.Fatalf("Meta: received %v, expected nil", err)
	}
	if meta.Count != count {
		t.Errorf("Received count %d, expected %d", meta.Count, count)
	}
	if meta.TotalBytes != total {
		t.Errorf("Received total_bytes %d, expected %d", meta.TotalBytes, total)
	}
	if meta.Version != version {
		t.Errorf("Received version %d, expected %d", meta.Version, version)
	}

	var sum uint32
	for i := uint32(0); i < meta.Count; i++ {
		chunk, found, err := c.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): received %v, expected nil", i, err)
		}
		if !found {
			t.Errorf("Get(%d): no chunk, expected one at every index below %d", i, meta.Count)
		}
		sum += uint32(len(chunk))
	}
	if sum != meta.TotalBytes {
		t.Errorf("Chunks sum to %d bytes, metadata says %d", sum, meta.TotalBytes)
	}
	if _, found, _ := c.Get(meta.Count); found {
		t.Errorf("Found a chunk at index %d, expected none past the end", meta.Count)
	}
}

// checkChunks verifies the collection contains exactly the given chunks, in
// order, comparing contents and not just lengths.
func checkChunks(t *testing.T, c *Collection, expected ...string) {
	t.Helper()
	count, err := c.Count()
	if err != nil {
		t.Fatalf("Count: received %v, expected nil", err)
	}
	if int(count) != len(expected) {
		t.Fatalf("Received count %d, expected %d", count, len(expected))
	}
	for i, want := range expected {
		chunk, found, err := c.Get(uint32(i))
		if err != nil {
			t.Fatalf("Get(%d): received %v, expected nil", i, err)
		}
		if !found {
			t.Fatalf("Get(%d): no chunk, expected %q", i, want)
		}
		if string(chunk) != want {
			t.Errorf("Get(%d): received %q, expected %q", i, chunk, want)
		}
	}
}

func TestEmptyCollection(t *testing.T) {
	c := open(t, store.NewMemory(), "test")

	checkMeta(t, c, 0, 0, 0)
	empty, err := c.IsEmpty()
	if err != nil || !empty {
		t.Errorf("IsEmpty: received (%v, %v), expected (true, nil)", empty, err)
	}
	_, found, err := c.Get(0)
	if err != nil {
		t.Errorf("Get(0): received %v, expected nil", err)
	}
	if found {
		t.Errorf("Get(0): found a chunk, expected none")
	}
}

func TestPushAndGet(t *testing.T) {
	c := open(t, store.NewMemory(), "test")

	idx, err := c.Push([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Push: received %v, expected nil", err)
	}
	if idx != 0 {
		t.Errorf("Push: received index %d, expected 0", idx)
	}
	checkMeta(t, c, 1, 3, 1)

	idx, err = c.Push([]byte("World!"))
	if err != nil {
		t.Fatalf("Push: received %v, expected nil", err)
	}
	if idx != 1 {
		t.Errorf("Push: received index %d, expected 1", idx)
	}
	checkMeta(t, c, 2, 9, 2)

	chunk, found, err := c.Get(1)
	if err != nil || !found {
		t.Fatalf("Get(1): received (%v, %v), expected a chunk", found, err)
	}
	if string(chunk) != "World!" {
		t.Errorf("Get(1): received %q, expected %q", chunk, "World!")
	}
	if _, found, _ := c.Get(2); found {
		t.Errorf("Get(2): found a chunk, expected none")
	}
}

func TestSet(t *testing.T) {
	c := open(t, store.NewMemory(), "test")

	c.Push([]byte("old"))
	err := c.Set(0, []byte("new_value"))
	if err != nil {
		t.Fatalf("Set: received %v, expected nil", err)
	}
	checkChunks(t, c, "new_value")
	checkMeta(t, c, 1, 9, 2)

	// index count is one past the last chunk
	err = c.Set(1, []byte("nope"))
	if err != ErrOutOfBounds {
		t.Errorf("Set(1): received %v, expected ErrOutOfBounds", err)
	}
	// a failed Set mutates nothing
	checkMeta(t, c, 1, 9, 2)
}

func TestSetEmptyCollection(t *testing.T) {
	c := open(t, store.NewMemory(), "test")
	err := c.Set(0, []byte("nope"))
	if err != ErrOutOfBounds {
		t.Errorf("Set(0): received %v, expected ErrOutOfBounds", err)
	}
}

func TestInsert(t *testing.T) {
	c := open(t, store.NewMemory(), "test")

	c.Push([]byte("AB"))
	c.Push([]byte("CD"))
	err := c.Insert(1, []byte("XY"))
	if err != nil {
		t.Fatalf("Insert: received %v, expected nil", err)
	}
	checkChunks(t, c, "AB", "XY", "CD")
	checkMeta(t, c, 3, 6, 3)

	// insert at the front
	err = c.Insert(0, []byte("zz"))
	if err != nil {
		t.Fatalf("Insert(0): received %v, expected nil", err)
	}
	checkChunks(t, c, "zz", "AB", "XY", "CD")
	checkMeta(t, c, 4, 8, 4)

	// insert at index count behaves like Push
	err = c.Insert(4, []byte("end"))
	if err != nil {
		t.Fatalf("Insert(4): received %v, expected nil", err)
	}
	checkChunks(t, c, "zz", "AB", "XY", "CD", "end")

	// one past count is a contract violation
	err = c.Insert(6, []byte("nope"))
	if err != ErrOutOfBounds {
		t.Errorf("Insert(6): received %v, expected ErrOutOfBounds", err)
	}
	checkMeta(t, c, 5, 11, 5)
}

func TestRemove(t *testing.T) {
	c := open(t, store.NewMemory(), "test")

	c.Push([]byte("A"))
	c.Push([]byte("B"))
	c.Push([]byte("C"))

	removed, found, err := c.Remove(1)
	if err != nil {
		t.Fatalf("Remove: received %v, expected nil", err)
	}
	if !found {
		t.Fatalf("Remove: no chunk, expected %q", "B")
	}
	if string(removed) != "B" {
		t.Errorf("Remove: received %q, expected %q", removed, "B")
	}
	checkChunks(t, c, "A", "C")
	checkMeta(t, c, 2, 2, 4)

	// removing past the end is a soft miss, not an error
	removed, found, err = c.Remove(2)
	if err != nil {
		t.Errorf("Remove(2): received %v, expected nil", err)
	}
	if found || removed != nil {
		t.Errorf("Remove(2): received (%q, %v), expected no chunk", removed, found)
	}
	// and it does not mutate anything
	checkMeta(t, c, 2, 2, 4)

	// remove the head
	removed, found, _ = c.Remove(0)
	if !found || string(removed) != "A" {
		t.Errorf("Remove(0): received (%q, %v), expected (\"A\", true)", removed, found)
	}
	checkChunks(t, c, "C")

	// remove the only remaining chunk
	removed, found, _ = c.Remove(0)
	if !found || string(removed) != "C" {
		t.Errorf("Remove(0): received (%q, %v), expected (\"C\", true)", removed, found)
	}
	checkMeta(t, c, 0, 0, 6)
}

func TestClear(t *testing.T) {
	memory := store.NewMemory()
	c := open(t, memory, "test")

	c.Push([]byte("A"))
	c.Push([]byte("B"))
	err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: received %v, expected nil", err)
	}

	// pristine, version included
	checkMeta(t, c, 0, 0, 0)

	// nothing left behind in the store
	keys, _ := memory.ListPrefix("")
	if len(keys) > 0 {
		t.Errorf("Received keys %v, expected empty store", keys)
	}

	// clearing again is fine
	err = c.Clear()
	if err != nil {
		t.Errorf("Clear(again): received %v, expected nil", err)
	}
	checkMeta(t, c, 0, 0, 0)
}

func TestVersionTracking(t *testing.T) {
	c := open(t, store.NewMemory(), "test")

	meta, _ := c.Meta()
	if meta.Version != 0 {
		t.Errorf("Received version %d, expected 0", meta.Version)
	}

	c.Push([]byte("A"))
	checkMeta(t, c, 1, 1, 1)
	c.Push([]byte("B"))
	checkMeta(t, c, 2, 2, 2)
	c.Set(0, []byte("A2"))
	checkMeta(t, c, 2, 3, 3)
	c.Remove(1)
	checkMeta(t, c, 1, 2, 4)
	c.Clear()
	checkMeta(t, c, 0, 0, 0)
}

func TestWriteChunked(t *testing.T) {
	var table = []struct {
		content string
		size    uint32
		chunks  []string
	}{
		{"ABCDEFGHIJ", 3, []string{"ABC", "DEF", "GHI", "J"}},
		{"ABCDEFGHIJ", 4, []string{"ABCD", "EFGH", "IJ"}},
		{"ABCDEF", 3, []string{"ABC", "DEF"}}, // exact multiple
		{"AB", 100, []string{"AB"}},
		{"A", 1, []string{"A"}},
		{"", 4, nil},
	}
	for _, test := range table {
		c := open(t, store.NewMemory(), "test")
		// prior state must not matter
		c.Push([]byte("leftover"))
		c.Push([]byte("junk"))

		err := c.WriteChunked([]byte(test.content), test.size)
		if err != nil {
			t.Fatalf("WriteChunked(%q, %d): received %v, expected nil", test.content, test.size, err)
		}
		checkChunks(t, c, test.chunks...)

		assembled, err := c.Assemble()
		if err != nil {
			t.Fatalf("Assemble: received %v, expected nil", err)
		}
		if !bytes.Equal(assembled, []byte(test.content)) {
			t.Errorf("Assemble: received %q, expected %q", assembled, test.content)
		}
	}
}

func TestWriteChunkedZeroSize(t *testing.T) {
	c := open(t, store.NewMemory(), "test")
	c.Push([]byte("keep"))

	err := c.WriteChunked([]byte("content"), 0)
	if err != ErrBadChunkSize {
		t.Errorf("Received %v, expected ErrBadChunkSize", err)
	}
	// the bad call touched nothing
	checkChunks(t, c, "keep")
}

func TestAppend(t *testing.T) {
	c := open(t, store.NewMemory(), "test")

	// an empty collection gets the content as its first chunk
	err := c.Append([]byte("AB"), 3)
	if err != nil {
		t.Fatalf("Append: received %v, expected nil", err)
	}
	checkChunks(t, c, "AB")

	// 2+1 <= 3 merges into the tail
	err = c.Append([]byte("Z"), 3)
	if err != nil {
		t.Fatalf("Append: received %v, expected nil", err)
	}
	checkChunks(t, c, "ABZ")

	// 3+1 > 3 starts a new chunk
	err = c.Append([]byte("Q"), 3)
	if err != nil {
		t.Fatalf("Append: received %v, expected nil", err)
	}
	checkChunks(t, c, "ABZ", "Q")
	checkMeta(t, c, 2, 4, 3)
}

func TestAppendNeverSplits(t *testing.T) {
	c := open(t, store.NewMemory(), "test")

	// oversized content on an empty collection is stored whole
	err := c.Append([]byte("way past the limit"), 4)
	if err != nil {
		t.Fatalf("Append: received %v, expected nil", err)
	}
	checkChunks(t, c, "way past the limit")

	// and likewise when there is a tail it cannot merge with
	err = c.Append([]byte("another long piece"), 4)
	if err != nil {
		t.Fatalf("Append: received %v, expected nil", err)
	}
	checkChunks(t, c, "way past the limit", "another long piece")
}

func TestGetRange(t *testing.T) {
	c := open(t, store.NewMemory(), "test")
	for i := byte(0); i < 10; i++ {
		c.Push([]byte{'0' + i})
	}

	var table = []struct {
		start, n uint32
		expected []string
	}{
		{3, 4, []string{"3", "4", "5", "6"}},
		{0, 10, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}},
		{8, 100, []string{"8", "9"}}, // clamped at the end
		{10, 4, nil},
		{200, 5, nil},
		{0, 0, nil},
		{4294967295, 10, nil}, // start+n wraps around
	}
	for _, test := range table {
		chunks, err := c.GetRange(test.start, test.n)
		if err != nil {
			t.Fatalf("GetRange(%d, %d): received %v, expected nil", test.start, test.n, err)
		}
		if len(chunks) != len(test.expected) {
			t.Errorf("GetRange(%d, %d): received %d chunks, expected %d", test.start, test.n, len(chunks), len(test.expected))
			continue
		}
		for i := range chunks {
			if string(chunks[i]) != test.expected[i] {
				t.Errorf("GetRange(%d, %d)[%d]: received %q, expected %q", test.start, test.n, i, chunks[i], test.expected[i])
			}
		}
	}
}

func TestMultipleCollections(t *testing.T) {
	memory := store.NewMemory()
	a := open(t, memory, "a")
	b := open(t, memory, "b")

	a.Push([]byte("A content"))
	b.Push([]byte("B content"))

	checkChunks(t, a, "A content")
	checkChunks(t, b, "B content")

	// clearing one leaves the other alone
	a.Clear()
	checkMeta(t, a, 0, 0, 0)
	checkChunks(t, b, "B content")
}

func TestEmptyChunkIsPresent(t *testing.T) {
	c := open(t, store.NewMemory(), "test")
	c.Push([]byte{})

	chunk, found, err := c.Get(0)
	if err != nil {
		t.Fatalf("Get(0): received %v, expected nil", err)
	}
	if !found {
		t.Errorf("Get(0): no chunk, expected a present zero-length one")
	}
	if len(chunk) != 0 {
		t.Errorf("Get(0): received %d bytes, expected 0", len(chunk))
	}
	checkMeta(t, c, 1, 0, 1)
}

func TestOpenBadID(t *testing.T) {
	var table = []string{"", "has+plus", "+", "trailing+"}
	for _, id := range table {
		_, err := Open(store.NewMemory(), id)
		if err != ErrBadID {
			t.Errorf("Open(%q): received %v, expected ErrBadID", id, err)
		}
	}
}

// drive a fixed sequence of mutations and verify the metadata invariants
// hold after every single one.
func TestMetadataInvariants(t *testing.T) {
	c := open(t, store.NewMemory(), "test")

	type op struct {
		name string
		run  func() error
	}
	var script = []op{
		{"push", func() error { _, err := c.Push([]byte("one")); return err }},
		{"push", func() error { _, err := c.Push([]byte("two")); return err }},
		{"insert", func() error { return c.Insert(0, []byte("zero")) }},
		{"insert", func() error { return c.Insert(2, []byte("mid")) }},
		{"set", func() error { return c.Set(1, []byte("replaced with something longer")) }},
		{"set", func() error { return c.Set(1, []byte("s")) }},
		{"remove", func() error { _, _, err := c.Remove(0); return err }},
		{"remove", func() error { _, _, err := c.Remove(2); return err }},
		{"push", func() error { _, err := c.Push([]byte{}); return err }},
		{"append", func() error { return c.Append([]byte("xx"), 8) }},
		{"append", func() error { return c.Append([]byte("a long enough piece"), 8) }},
	}
	var version uint32
	for i, step := range script {
		err := step.run()
		if err != nil {
			t.Fatalf("step %d (%s): received %v, expected nil", i, step.name, err)
		}
		meta, err := c.Meta()
		if err != nil {
			t.Fatalf("step %d (%s): Meta received %v, expected nil", i, step.name, err)
		}
		if meta.Version <= version {
			t.Errorf("step %d (%s): version went %d -> %d, expected an increase", i, step.name, version, meta.Version)
		}
		version = meta.Version
		if (meta.Count == 0) != (meta.TotalBytes == 0) {
			t.Errorf("step %d (%s): count %d with total_bytes %d", i, step.name, meta.Count, meta.TotalBytes)
		}
		checkMeta(t, c, meta.Count, meta.TotalBytes, meta.Version)
	}
}
