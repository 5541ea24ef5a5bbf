package storetest

import (
	"bytes"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/ndlib/chonk/store"
)

// Stress will spawn a given number of goroutines to simultaneously read,
// write, and delete keys in the given store. It is a good test to run with
// the -race flag. Each goroutine owns its own key space, so the test checks
// backend-level data races rather than application-level conflicts.
func Stress(t *testing.T, s store.Store, ngoroutine, nround int) {
	if ngoroutine == 0 {
		ngoroutine = 5
	}
	if nround == 0 {
		nround = 50
	}
	var wg sync.WaitGroup
	for i := 0; i < ngoroutine; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(t, s, id, nround)
		}(i)
	}
	wg.Wait()
}

func worker(t *testing.T, s store.Store, id, nround int) {
	rng := rand.New(rand.NewSource(int64(id)))
	key := fmt.Sprintf("stress-%04d", id)
	for i := 0; i < nround; i++ {
		value := make([]byte, rng.Intn(4096))
		rng.Read(value)
		err := s.Set(key, value)
		if err != nil {
			t.Errorf("%s: Set received %v, expected nil", key, err)
			return
		}
		back, err := s.Get(key)
		if err != nil {
			t.Errorf("%s: Get received %v, expected nil", key, err)
			return
		}
		if !bytes.Equal(back, value) {
			t.Errorf("%s: read %d bytes back, expected %d", key, len(back), len(value))
			return
		}
		if rng.Intn(4) == 0 {
			err = s.Delete(key)
			if err != nil {
				t.Errorf("%s: Delete received %v, expected nil", key, err)
				return
			}
			_, err = s.Get(key)
			if err != store.ErrNotExist {
				t.Errorf("%s: Get after Delete received %v, expected ErrNotExist", key, err)
				return
			}
		}
	}
	s.Delete(key)
}
