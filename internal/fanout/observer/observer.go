// Package observer counts the outputs produced by submitted jobs.
package observer

import (
	"context"
	"os"

	"github.com/go-redis/redis"
	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
)

// DirectoryObserver counts the entries of a directory whose names match a glob pattern.
type DirectoryObserver struct {
	dir     string
	pattern string
}

// NewDirectoryObserver returns an observer of dir. An empty pattern counts every entry.
func NewDirectoryObserver(dir string, pattern string) *DirectoryObserver {
	if pattern == "" {
		pattern = "*"
	}
	return &DirectoryObserver{dir: dir, pattern: pattern}
}

func (o *DirectoryObserver) Observe(_ context.Context) (int, error) {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if o.pattern == "*" {
		return len(entries), nil
	}
	count := 0
	for _, entry := range entries {
		ok, err := zglob.Match(o.pattern, entry.Name())
		if err != nil {
			return 0, errors.WithStack(err)
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// RedisCounterObserver reads an integer counter that queue workers increment once per output.
// A missing key counts as zero.
type RedisCounterObserver struct {
	client redis.UniversalClient
	key    string
}

// CompletedKey is the counter queue workers increment.
func CompletedKey(prefix string) string {
	return prefix + ":completed"
}

func NewRedisCounterObserver(client redis.UniversalClient, keyPrefix string) *RedisCounterObserver {
	return &RedisCounterObserver{client: client, key: CompletedKey(keyPrefix)}
}

func (o *RedisCounterObserver) Observe(_ context.Context) (int, error) {
	n, err := o.client.Get(o.key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return int(n), nil
}
