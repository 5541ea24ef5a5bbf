package store

import (
	"strings"
)

// NewWithPrefix wraps the store s by one which will prefix all its keys by
// prefix. This provides a way to namespace the keys, and to share the same
// underlying store among a group of users.
func NewWithPrefix(s Store, prefix string) Store {
	return prefixstore{s: s, p: prefix}
}

type prefixstore struct {
	s Store  // the store being wrapped
	p string // the prefix for our keys
}

func (ps prefixstore) Get(key string) ([]byte, error) {
	return ps.s.Get(ps.p + key)
}

func (ps prefixstore) Set(key string, value []byte) error {
	return ps.s.Set(ps.p+key, value)
}

func (ps prefixstore) Delete(key string) error {
	return ps.s.Delete(ps.p + key)
}

// ListPrefix passes the enumeration through to the wrapped store, provided
// that store supports it, removing our prefix from the results.
func (ps prefixstore) ListPrefix(prefix string) ([]string, error) {
	lister, ok := ps.s.(Lister)
	if !ok {
		return nil, nil
	}
	var plen = len(ps.p)
	var result []string
	keys, err := lister.ListPrefix(ps.p + prefix)
	for _, key := range keys {
		if strings.HasPrefix(key, ps.p) {
			result = append(result, key[plen:])
		}
	}
	return result, err
}
