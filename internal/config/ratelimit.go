package config

import "time"

// RateLimitConfig configures the Redis token bucket.  A bucket holds
// Capacity tokens and regains one every Refill.  Read routes get a bucket
// per client and route; ForWrites derives the smaller bucket shared by all
// writes of one client.
type RateLimitConfig struct {
    Enabled       bool
    Capacity      int
    WriteCapacity int // 0 means Capacity/6
    Refill        time.Duration
    TTL           time.Duration
    Prefix        string
    PerRoute      bool
}

func LoadRateLimitConfig() RateLimitConfig {
    rl := RateLimitConfig{
        Enabled:       mustBool("RATE_LIMIT_ENABLED", true),
        Capacity:      mustInt("RATE_LIMIT_CAPACITY", 60),
        WriteCapacity: mustInt("RATE_LIMIT_WRITE_CAPACITY", 0),
        Refill:        mustDur("RATE_LIMIT_REFILL_EVERY", time.Second),
        TTL:           mustDur("RATE_LIMIT_TTL", 10*time.Minute),
        Prefix:        getenv("RATE_LIMIT_PREFIX", "booking:rl"),
        PerRoute:      true,
    }
    if rl.Capacity < 1 {
        rl.Capacity = 1
    }
    // an idle bucket must outlive a full refill
    if full := time.Duration(rl.Capacity) * rl.Refill; rl.TTL < full {
        rl.TTL = full
    }
    return rl
}

// ForWrites returns the bucket of booking, like, comment and sign-in
// writes: one per client across routes, under its own prefix.
func (c RateLimitConfig) ForWrites() RateLimitConfig {
    w := c
    w.Prefix = c.Prefix + ":w"
    w.PerRoute = false
    w.Capacity = c.WriteCapacity
    if w.Capacity <= 0 {
        w.Capacity = c.Capacity / 6
    }
    if w.Capacity < 1 {
        w.Capacity = 1
    }
    return w
}
