package config

import (
    "context"
    "crypto/tls"
    "log"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server shared by the response cache and the
// rate limiter.  REDIS_ADDR is used unless both REDIS_HOST and REDIS_PORT
// are set.
type RedisConfig struct {
    Disabled bool
    Addr     string
    Password string
    DB       int
    TLS      bool
}

func LoadRedisConfig() RedisConfig {
    rc := RedisConfig{
        Disabled: mustBool("REDIS_DISABLED", false),
        Addr:     getenv("REDIS_ADDR", "localhost:6379"),
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       mustInt("REDIS_DB", 0),
        TLS:      mustBool("REDIS_TLS", false),
    }
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        rc.Addr = host + ":" + port
    }
    return rc
}

// NewRedisClient connects and pings.  It returns nil when Redis is disabled
// or unreachable; the cache and the rate limiter then pass requests
// through untouched.
func NewRedisClient(rc RedisConfig) *redis.Client {
    if rc.Disabled {
        log.Println("redis disabled: cache and rate limit off")
        return nil
    }
    opts := &redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB}
    if rc.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("redis unavailable at %s: %v; cache and rate limit off", rc.Addr, err)
        _ = client.Close()
        return nil
    }
    return client
}
