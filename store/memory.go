package store

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Memory implements a simple in-memory version of a store. It is intended
// mainly for testing.
type Memory struct {
	m     sync.RWMutex
	store map[string][]byte
}

var (
	// ensure Memory satisfies the Store interface
	_ Store  = &Memory{}
	_ Lister = &Memory{}
)

// NewMemory returns a new, empty memory store.
func NewMemory() *Memory {
	return &Memory{store: make(map[string][]byte)}
}

// Get returns the value stored under the given key. The returned slice is a
// copy, so callers may modify it freely.
func (ms *Memory) Get(key string) ([]byte, error) {
	ms.m.RLock()
	v, ok := ms.store[key]
	ms.m.RUnlock()
	if !ok {
		return nil, ErrNotExist
	}
	result := make([]byte, len(v))
	copy(result, v)
	return result, nil
}

// Set saves value under the given key, replacing any previous value.
func (ms *Memory) Set(key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	ms.m.Lock()
	ms.store[key] = v
	ms.m.Unlock()
	return nil
}

// Delete the given key from the store. It is not an error if the item does
// not exist in the store.
func (ms *Memory) Delete(key string) error {
	ms.m.Lock()
	delete(ms.store, key)
	ms.m.Unlock()
	return nil
}

// ListPrefix returns all the key entries which begin with the given prefix,
// in sorted order.
func (ms *Memory) ListPrefix(prefix string) ([]string, error) {
	var result []string
	ms.m.RLock()
	for k := range ms.store {
		if strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	ms.m.RUnlock()
	sort.Strings(result)
	return result, nil
}

// Dump writes a listing of the contents of the store to the given writer.
// This is intended for testing and debugging.
func (ms *Memory) Dump(w io.Writer) {
	ms.m.RLock()
	for k, v := range ms.store {
		s := v
		if len(s) > 300 {
			s = s[:50]
		}
		fmt.Fprintf(w, "%s: %s\n", k, string(s))
	}
	ms.m.RUnlock()
}
