package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on go-redis.  Every key is stored under
// "<prefix>:<key>" so several deployments can share one Redis.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache wraps rdb.  An empty prefix stores keys verbatim.
func NewRedisCache(rdb *redis.Client, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		log.Printf("cache: GET %q failed: %v", key, err)
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, c.key(key), val, ttl).Err(); err != nil {
		log.Printf("cache: SET %q failed: %v", key, err)
		return err
	}
	return nil
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		log.Printf("cache: DEL %v failed: %v", keys, err)
		return err
	}
	return nil
}

func (c *RedisCache) HGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	b, err := c.rdb.HGet(ctx, c.key(key), field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		log.Printf("cache: HGET %q %q failed: %v", key, field, err)
		return nil, false, err
	}
	return b, true, nil
}

// HSet writes one field and (re)arms the ttl of the whole hash.
func (c *RedisCache) HSet(ctx context.Context, key, field string, val []byte, ttl time.Duration) error {
	k := c.key(key)
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, field, val)
		if ttl > 0 {
			p.Expire(ctx, k, ttl)
		}
		return nil
	})
	if err != nil {
		log.Printf("cache: HSET %q %q failed: %v", key, field, err)
	}
	return err
}

// Clear deletes every key under the prefix.  Without a prefix it refuses,
// since that would flush keys it does not own.
func (c *RedisCache) Clear(ctx context.Context) error {
	if c.prefix == "" {
		return errors.New("cache: refusing to clear without a key prefix")
	}
	iter := c.rdb.Scan(ctx, 0, c.prefix+":*", 500).Iterator()
	batch := make([]string, 0, 500)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.rdb.Del(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return flush()
}
