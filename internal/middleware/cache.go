package middleware

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/cinema-ticket-booking/internal/config"
)

// cachedResponse is what the cache stores per key.
type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// teeWriter copies the response body while it is written.  Once the body
// exceeds limit the copy is abandoned and the response is not cached.
type teeWriter struct {
    http.ResponseWriter
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (w *teeWriter) Write(b []byte) (int, error) {
    if !w.overflow {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.overflow = true
            w.buf.Reset()
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    u := c.Request().URL
    // the concrete path, so /movies/1 and /movies/2 never share an entry
    return cfg.Key(u.Path, u.Query().Encode())
}

// NewRedisCache caches successful GET responses of caller-independent
// routes.  A hit is answered with X-Cache: HIT.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = time.Minute
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(hit.Status, hit.ContentType, hit.Body)
                }
            }

            tee := &teeWriter{ResponseWriter: c.Response().Writer, limit: cfg.MaxBodyBytes}
            c.Response().Writer = tee
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if c.Response().Status != http.StatusOK || tee.overflow {
                return nil
            }
            payload, err := json.Marshal(cachedResponse{
                Status:      http.StatusOK,
                ContentType: c.Response().Header().Get(echo.HeaderContentType),
                Body:        tee.buf.Bytes(),
            })
            if err == nil {
                // the request context may already be cancelled
                _ = rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err()
            }
            return nil
        }
    }
}

// FlushCache deletes every cached response under cfg.Prefix and returns
// the number of keys removed.
func FlushCache(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client) (int, error) {
    if rdb == nil {
        return 0, nil
    }
    n := 0
    iter := rdb.Scan(ctx, 0, cfg.Pattern(), 200).Iterator()
    batch := make([]string, 0, 200)
    flush := func() error {
        if len(batch) == 0 {
            return nil
        }
        if err := rdb.Del(ctx, batch...).Err(); err != nil {
            return err
        }
        n += len(batch)
        batch = batch[:0]
        return nil
    }
    for iter.Next(ctx) {
        batch = append(batch, iter.Val())
        if len(batch) == cap(batch) {
            if err := flush(); err != nil {
                return n, err
            }
        }
    }
    if err := iter.Err(); err != nil {
        return n, err
    }
    return n, flush()
}
