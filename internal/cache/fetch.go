package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/iliyamo/openmusic-api/internal/apperror"
)

// Loader reads a value from the store of record.  It returns an
// *apperror.AppError (typically NotFound) when the value does not exist.
type Loader[T any] func(ctx context.Context) (T, error)

// Fetch is the read-through path: return the cached value when present,
// otherwise load it, store it and return it.  The bool reports whether the
// value came from the cache.  Loader errors are returned unchanged and
// nothing is cached; cache backend errors are returned as server errors.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load Loader[T]) (T, bool, error) {
	var zero T
	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		return zero, false, apperror.Server("cache read failed", err)
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, true, nil
		}
		log.Printf("cache: dropping undecodable entry %q", key)
	}

	v, err := load(ctx)
	if err != nil {
		return zero, false, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return zero, false, apperror.Server("cache encode failed", err)
	}
	if err := c.Set(ctx, key, b, ttl); err != nil {
		return zero, false, apperror.Server("cache write failed", err)
	}
	return v, false, nil
}

// FetchField is Fetch for one field of a hash key.
func FetchField[T any](ctx context.Context, c Cache, key, field string, ttl time.Duration, load Loader[T]) (T, bool, error) {
	var zero T
	raw, ok, err := c.HGet(ctx, key, field)
	if err != nil {
		return zero, false, apperror.Server("cache read failed", err)
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, true, nil
		}
		log.Printf("cache: dropping undecodable entry %q[%q]", key, field)
	}

	v, err := load(ctx)
	if err != nil {
		return zero, false, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return zero, false, apperror.Server("cache encode failed", err)
	}
	if err := c.HSet(ctx, key, field, b, ttl); err != nil {
		return zero, false, apperror.Server("cache write failed", err)
	}
	return v, false, nil
}

// Invalidate deletes keys after a write.  A backend failure is a server
// error: the write has happened but readers could see stale data.
func Invalidate(ctx context.Context, c Cache, keys ...string) error {
	if err := c.Del(ctx, dedupe(keys)...); err != nil {
		return apperror.Server("cache invalidation failed", err)
	}
	return nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if _, dup := seen[k]; dup || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
