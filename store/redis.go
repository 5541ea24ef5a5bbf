package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis implements a store kept in a Redis database. Each key is a single
// Redis string value. Redis caps values at 512 MB, which is far beyond the
// chunk sizes this store is used for.
type Redis struct {
	rdb *redis.Client
}

var (
	_ Store  = &Redis{}
	_ Lister = &Redis{}
)

// NewRedis creates a store backed by the Redis database given by url, e.g.
// "redis://localhost:6379/1".
func NewRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %s", url, err)
	}
	return &Redis{rdb: redis.NewClient(opt)}, nil
}

// Get returns the value stored under the given key.
func (r *Redis) Get(key string) ([]byte, error) {
	value, err := r.rdb.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotExist
	}
	return value, err
}

// Set saves value under the given key, replacing any previous value.
func (r *Redis) Set(key string, value []byte) error {
	return r.rdb.Set(context.Background(), key, value, 0).Err()
}

// Delete the given key. It is not an error if the key does not exist.
func (r *Redis) Delete(key string) error {
	return r.rdb.Del(context.Background(), key).Err()
}

// ListPrefix returns the keys having the given prefix, in sorted order. It
// uses SCAN, so it will not block the server on large databases.
func (r *Redis) ListPrefix(prefix string) ([]string, error) {
	ctx := context.Background()
	var result []string
	iter := r.rdb.Scan(ctx, 0, escapeMatch(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		result = append(result, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(result)
	return result, nil
}

// Close releases the connections to the Redis server.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// escapeMatch quotes the characters which are special in a SCAN MATCH
// pattern so the prefix is taken literally.
func escapeMatch(s string) string {
	return matchEscaper.Replace(s)
}

var matchEscaper = strings.NewReplacer(
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
	`\`, `\\`,
)
