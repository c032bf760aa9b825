package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func clearBackend(t *testing.T) {
    for _, k := range []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET", "RABBITMQ_URL", "AMQP_URL", "APP_TIMEZONE"} {
        t.Setenv(k, "")
    }
}

func TestLoadWithoutBackend(t *testing.T) {
    clearBackend(t)
    t.Setenv("DB_HOST", "db")

    cfg := Load()
    assert.False(t, cfg.BackendConfigured())
    assert.Equal(t, "backend not configured: missing DB_USER, DB_NAME, JWT_SECRET", cfg.BackendError)
    assert.Equal(t, "8080", cfg.Port)
    assert.Equal(t, "Asia/Seoul", cfg.Location.String())
    assert.Equal(t, 5*time.Minute, cfg.ResyncEvery)
    assert.False(t, cfg.Google.Enabled())
}

func TestLoadComplete(t *testing.T) {
    clearBackend(t)
    t.Setenv("DB_USER", "app")
    t.Setenv("DB_HOST", "db")
    t.Setenv("DB_NAME", "cinema")
    t.Setenv("JWT_SECRET", "s")
    t.Setenv("AMQP_URL", "amqp://x")
    t.Setenv("APP_TIMEZONE", "UTC")
    t.Setenv("CORS_ORIGINS", "http://a, http://b")

    cfg := Load()
    assert.True(t, cfg.BackendConfigured())
    assert.Equal(t, "amqp://x", cfg.RabbitURL)
    assert.Equal(t, time.UTC, cfg.Location)
    assert.Equal(t, []string{"http://a", "http://b"}, cfg.CORSOrigins)
}

func TestLoadRateLimitConfigBounds(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    rl := LoadRateLimitConfig()
    assert.Equal(t, 1, rl.Capacity)
    assert.Equal(t, 2*time.Second, rl.TTL)
    assert.True(t, rl.PerRoute)
}

func TestRateLimitForWrites(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "60")
    t.Setenv("RATE_LIMIT_WRITE_CAPACITY", "")
    w := LoadRateLimitConfig().ForWrites()
    assert.Equal(t, 10, w.Capacity)
    assert.Equal(t, "booking:rl:w", w.Prefix)
    assert.False(t, w.PerRoute)

    t.Setenv("RATE_LIMIT_WRITE_CAPACITY", "3")
    assert.Equal(t, 3, LoadRateLimitConfig().ForWrites().Capacity)
}

func TestCacheConfig(t *testing.T) {
    t.Setenv("CACHE_PREFIX", "")
    t.Setenv("CACHE_TTL", "2m")
    cc := LoadCacheConfig()
    assert.Equal(t, 2*time.Minute, cc.TTL)
    assert.Equal(t, "booking:cache:*", cc.Pattern())
    assert.Equal(t, "booking:cache:/v1/movies", cc.Key("/v1/movies", ""))
    assert.Equal(t, "booking:cache:/v1/movies/1/dates?a=1", cc.Key("/v1/movies/1/dates", "a=1"))
}

func TestLoadRedisConfig(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    t.Setenv("REDIS_HOST", "")
    t.Setenv("REDIS_DISABLED", "true")
    rc := LoadRedisConfig()
    assert.Equal(t, "cache:6380", rc.Addr)
    assert.True(t, rc.Disabled)
    assert.Nil(t, NewRedisClient(rc))

    t.Setenv("REDIS_HOST", "r")
    t.Setenv("REDIS_PORT", "7000")
    assert.Equal(t, "r:7000", LoadRedisConfig().Addr)
}
