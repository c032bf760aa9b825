package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/cinema-ticket-booking/internal/config"
)

// takeToken refills the bucket in KEYS[1] by whole intervals and takes one
// token.  It returns {allowed, remaining, retry_after_ms}.
var takeToken = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local every = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'at')
local tokens = tonumber(state[1]) or capacity
local at = tonumber(state[2]) or now

local gained = math.floor(math.max(0, now - at) / every)
if gained > 0 then
    tokens = math.min(capacity, tokens + gained)
    at = at + gained * every
end

local allowed, retry = 0, 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry = math.max(0, every - (now - at))
end

redis.call('HSET', key, 'tokens', tokens, 'at', at)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, retry}
`)

// NewTokenBucket limits requests with a Redis token bucket per client (see
// rateKey).  Without Redis, or when disabled, it passes everything
// through; Redis errors also fail open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    every := cfg.Refill
    if every <= 0 {
        every = time.Second
    }
    ttl := int64(math.Ceil(cfg.TTL.Seconds()))
    if ttl < 1 {
        ttl = 1
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, every.Milliseconds(), ttl).Int64Slice()
            if err != nil || len(res) != 3 {
                c.Logger().Warnf("ratelimit: key=%s: %v", key, err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] == 1 {
                return next(c)
            }
            secs := int(math.Ceil(float64(res[2]) / 1000))
            h.Set("Retry-After", strconv.Itoa(secs))
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

// rateKey is <prefix>:ip:<ip>:user:<id|anon>, plus :route:<METHOD path>
// for per-route buckets.  The route is the registered path, so every
// movie shares one bucket per route.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    parts := []string{cfg.Prefix, "ip", ip, "user", userID(c)}
    if cfg.PerRoute {
        parts = append(parts, "route", c.Request().Method+" "+c.Path())
    }
    return strings.Join(parts, ":")
}
