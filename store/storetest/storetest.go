// Package storetest provides functions for facilitating the testing of
// anything implementing the Store interface. Backend packages call Run from
// their own tests; backends needing an external service do it from behind a
// build tag.
package storetest

import (
	"bytes"
	"fmt"
	"sort"
	"testing"

	"github.com/ndlib/chonk/store"
)

// Run exercises the basic Store contract against s: Get/Set/Delete
// semantics, overwrites, the missing-key sentinel, and the distinction
// between a missing key and an empty value. If s implements Lister, the
// enumeration contract is checked too. The store should be empty when
// passed in, and is left holding only keys beginning with "storetest-".
func Run(t *testing.T, s store.Store) {
	// a missing key is ErrNotExist, not a failure
	_, err := s.Get("storetest-missing")
	if err != store.ErrNotExist {
		t.Errorf("Get(missing): received %v, expected ErrNotExist", err)
	}

	// binary round trip, including NUL and high bytes
	value := []byte{0, 1, 2, 255, 254, 'a', 0}
	err = s.Set("storetest-bin", value)
	if err != nil {
		t.Fatalf("Set: received %v, expected nil", err)
	}
	back, err := s.Get("storetest-bin")
	if err != nil {
		t.Fatalf("Get: received %v, expected nil", err)
	}
	if !bytes.Equal(back, value) {
		t.Errorf("Get: received %v, expected %v", back, value)
	}

	// Set is an unconditional overwrite
	err = s.Set("storetest-bin", []byte("second"))
	if err != nil {
		t.Fatalf("Set(overwrite): received %v, expected nil", err)
	}
	back, _ = s.Get("storetest-bin")
	if string(back) != "second" {
		t.Errorf("Get after overwrite: received %q, expected %q", back, "second")
	}

	// an empty value is present, and distinct from a missing key
	err = s.Set("storetest-empty", []byte{})
	if err != nil {
		t.Fatalf("Set(empty): received %v, expected nil", err)
	}
	back, err = s.Get("storetest-empty")
	if err != nil {
		t.Errorf("Get(empty): received %v, expected nil", err)
	}
	if len(back) != 0 {
		t.Errorf("Get(empty): received %d bytes, expected 0", len(back))
	}

	// Delete removes, and is idempotent
	err = s.Delete("storetest-bin")
	if err != nil {
		t.Errorf("Delete: received %v, expected nil", err)
	}
	_, err = s.Get("storetest-bin")
	if err != store.ErrNotExist {
		t.Errorf("Get after Delete: received %v, expected ErrNotExist", err)
	}
	err = s.Delete("storetest-bin")
	if err != nil {
		t.Errorf("Delete(again): received %v, expected nil", err)
	}

	if lister, ok := s.(store.Lister); ok {
		runLister(t, s, lister)
	}
}

func runLister(t *testing.T, s store.Store, lister store.Lister) {
	var expected []string
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("storetest-list-%d", i)
		expected = append(expected, key)
		err := s.Set(key, []byte{byte(i)})
		if err != nil {
			t.Fatalf("Set(%s): received %v, expected nil", key, err)
		}
	}
	keys, err := lister.ListPrefix("storetest-list-")
	if err != nil {
		t.Fatalf("ListPrefix: received %v, expected nil", err)
	}
	sort.Strings(keys)
	if !equalList(keys, expected) {
		t.Errorf("ListPrefix: received %v, expected %v", keys, expected)
	}

	keys, err = lister.ListPrefix("storetest-list-zzz")
	if err != nil {
		t.Errorf("ListPrefix(no match): received %v, expected nil", err)
	}
	if len(keys) != 0 {
		t.Errorf("ListPrefix(no match): received %v, expected empty list", keys)
	}
}

func equalList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
