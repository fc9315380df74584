// Package cache is the advisory read cache in front of the store of record.
// Entries are JSON payloads keyed by the families in keys.go.  The cache is
// never consulted for authorization decisions.
package cache

import (
	"context"
	"time"
)

// Cache is the key/value port used by services.  Get reports a miss with
// ok=false and a nil error; any non-nil error means the backend itself failed.
type Cache interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	// HGet and HSet address one field of a hash key.  Deleting the key with
	// Del drops every field at once.
	HGet(ctx context.Context, key, field string) (val []byte, ok bool, err error)
	HSet(ctx context.Context, key, field string, val []byte, ttl time.Duration) error

	// Clear drops every key this cache owns.
	Clear(ctx context.Context) error
}

// Noop is the cache used when caching is disabled or Redis is unavailable.
// Every read misses, so callers always load from the store.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)                 { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error          { return nil }
func (Noop) Del(context.Context, ...string) error                              { return nil }
func (Noop) HGet(context.Context, string, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) HSet(context.Context, string, string, []byte, time.Duration) error { return nil }
func (Noop) Clear(context.Context) error                                       { return nil }
