package config

import (
	"time"
)

// CacheConfig defines settings for the data cache that sits in front of the
// store of record.  When Enabled is false or no Redis client is configured,
// every read goes straight to the database.  TTL bounds how long an entry
// can outlive a missed invalidation.  Prefix namespaces every key so several
// deployments can share one Redis.  FlushOnStart drops every key under the
// prefix when the server boots.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	FlushOnStart bool
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Minute),
		Prefix:       envStr("CACHE_PREFIX", "openmusic"),
		FlushOnStart: envBool("CACHE_FLUSH_ON_START", false),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	return cfg
}
