package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/hospital-admin/internal/config"
)

// takeToken refills the bucket stored at KEYS[1] for the whole intervals
// elapsed since its last refill, then takes one token.
// ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_s.
// Returns {allowed, remaining, retry_ms}.
var takeToken = redis.NewScript(`
local now, cap, refill, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens, at = tonumber(b[1]), tonumber(b[2])
if tokens == nil or at == nil then
  tokens, at = cap, now
end
local n = math.floor(math.max(0, now - at) / every)
if n > 0 then
  tokens = math.min(cap, tokens + n * refill)
  at = at + n * every
end
local ok, retry = 0, 0
if tokens > 0 then
  ok, tokens = 1, tokens - 1
else
  retry = math.max(0, every - (now - at))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, retry}
`)

type bucketState struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

// NewTokenBucket enforces cfg with a token bucket kept in Redis, shared by
// every API replica.  Redis errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    limit := strconv.Itoa(cfg.Capacity)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            st, err := take(c, rdb, cfg, key)
            if err != nil {
                log.WithError(err).WithField("key", key).Warn("ratelimit: redis unavailable; allowing request")
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(st.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if st.allowed {
                return next(c)
            }

            secs := int(math.Ceil(st.retry.Seconds()))
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                log.WithFields(logrus.Fields{"key": key, "retry": st.retry}).Info("ratelimit: blocked")
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded", "retryAfter": secs})
        }
    }
}

func take(c echo.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (bucketState, error) {
    vals, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
        time.Now().UnixMilli(),
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        int64(cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return bucketState{}, err
    }
    if len(vals) != 3 {
        return bucketState{}, redis.Nil
    }
    return bucketState{
        allowed:   vals[0] == 1,
        remaining: vals[1],
        retry:     time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// buildRateKey joins the prefix with the parts named by the key strategy,
// e.g. "ip_route" gives "<prefix>:ip:<addr>:route:<method path>".  Unknown
// strategies key on ip, user and route together.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    add := func(name string) bool {
        switch name {
        case "ip":
            ip := c.RealIP()
            if ip == "" {
                ip = "unknown"
            }
            parts = append(parts, "ip", ip)
        case "user":
            parts = append(parts, "user", currentUserID(c))
        case "route":
            parts = append(parts, "route", c.Request().Method+" "+c.Path())
        default:
            return false
        }
        return true
    }

    names := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")
    for _, n := range names {
        if !add(n) {
            parts = parts[:1]
            add("ip")
            add("user")
            add("route")
            break
        }
    }
    return strings.Join(parts, ":")
}
