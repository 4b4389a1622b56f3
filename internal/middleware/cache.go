package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/hospital-admin/internal/config"
)

// cachedResponse is what one cache entry holds.  Headers are kept so a hit
// is byte-for-byte the response of the miss.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// recorder tees the response body into buf, up to limit bytes when limit
// is positive.  truncated marks bodies that were cut.
type recorder struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int
    truncated bool
}

func (r *recorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
    if !r.truncated {
        if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
            r.truncated = true
        } else {
            r.buf.Write(b)
        }
    }
    return r.ResponseWriter.Write(b)
}

// cacheKeyFrom builds prefix:namespace:sha1(parts).  The namespace stays in
// clear text so PurgeOnWrite can SCAN for it.
func cacheKeyFrom(cfg config.CacheConfig, namespace string, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", c.Path()}
    case "method_route":
        parts = []string{"method", r.Method, "route", c.Path()}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
    default:
        parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
    }
    return fmt.Sprintf("%s:%x", namespacePrefix(cfg, namespace), sha1.Sum([]byte(strings.Join(parts, ":"))))
}

func namespacePrefix(cfg config.CacheConfig, namespace string) string {
    return cfg.Prefix + ":" + namespace
}

// NewRedisCache serves cached 200 responses of namespace from Redis.  Pair
// it with PurgeOnWrite on the mutating routes of the same resource.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, namespace string, log logrus.FieldLogger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 5 * time.Minute
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            key := cacheKeyFrom(cfg, namespace, c)
            if hit, ok := lookup(c.Request().Context(), rdb, key); ok {
                return replay(c, hit)
            }

            rec := &recorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.truncated {
                return nil
            }

            entry := cachedResponse{Status: rec.status, Header: c.Response().Header().Clone(), Body: rec.buf.Bytes()}
            entry.Header.Del("X-Cache")
            payload, err := json.Marshal(entry)
            if err != nil {
                return nil
            }
            // the request context may already be done once the body is out
            if err := rdb.SetEx(context.WithoutCancel(c.Request().Context()), key, payload, ttl).Err(); err != nil {
                log.WithError(err).WithField("key", key).Debug("cache: store failed")
            }
            return nil
        }
    }
}

func lookup(ctx context.Context, rdb *redis.Client, key string) (cachedResponse, bool) {
    bs, err := rdb.Get(ctx, key).Bytes()
    if err != nil {
        return cachedResponse{}, false
    }
    var hit cachedResponse
    if err := json.Unmarshal(bs, &hit); err != nil || hit.Status == 0 {
        return cachedResponse{}, false
    }
    return hit, true
}

func replay(c echo.Context, hit cachedResponse) error {
    h := c.Response().Header()
    for k, vals := range hit.Header {
        if strings.EqualFold(k, echo.HeaderContentLength) {
            continue
        }
        for _, v := range vals {
            h.Add(k, v)
        }
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(hit.Status)
    _, err := c.Response().Write(hit.Body)
    return err
}

// PurgeOnWrite drops every cached entry of namespace when a mutating
// request succeeds.  The purge runs from a response hook, after the handler
// has decided on a 2xx status but before the status line is written, so a
// client that refetches after the write never reads a stale entry.
func PurgeOnWrite(cfg config.CacheConfig, rdb *redis.Client, namespace string, log logrus.FieldLogger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    pattern := namespacePrefix(cfg, namespace) + ":*"
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            switch c.Request().Method {
            case http.MethodGet, http.MethodHead, http.MethodOptions:
                return next(c)
            }
            resp := c.Response()
            resp.Before(func() {
                if resp.Status < 200 || resp.Status >= 300 {
                    return
                }
                if err := purge(c.Request().Context(), rdb, pattern); err != nil {
                    log.WithError(err).WithField("namespace", namespace).Warn("cache: purge failed")
                }
            })
            return next(c)
        }
    }
}

func purge(ctx context.Context, rdb *redis.Client, pattern string) error {
    iter := rdb.Scan(ctx, 0, pattern, 200).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) == 0 {
        return nil
    }
    return rdb.Del(ctx, keys...).Err()
}
