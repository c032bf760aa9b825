package config

import (
    "time"
)

// CacheConfig configures the Redis cache of the public catalog responses.
// Only bodies up to MaxBodyBytes are stored.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      mustBool("CACHE_ENABLED", true),
        TTL:          mustDur("CACHE_TTL", time.Minute),
        Prefix:       getenv("CACHE_PREFIX", "booking:cache"),
        MaxBodyBytes: mustInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

// Key is the cache key of a request path and its encoded, sorted query.
func (c CacheConfig) Key(path, query string) string {
    if query == "" {
        return c.Prefix + ":" + path
    }
    return c.Prefix + ":" + path + "?" + query
}

// Pattern matches every key written under Prefix.  The midnight job uses it
// to drop responses whose release flags depend on the current date.
func (c CacheConfig) Pattern() string { return c.Prefix + ":*" }
