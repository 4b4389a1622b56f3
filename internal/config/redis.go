package config

// Redis backs the API's rate limiter and response cache and, optionally,
// the admin console's remembered session.  If the server cannot be
// reached at startup NewRedisClient returns nil and callers degrade
// gracefully: the cache and limiter become pass-through and the console
// falls back to its file session store.

import (
    "context"
    "crypto/tls"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"
)

// RedisOptions are the connection settings shared by both binaries.
type RedisOptions struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// RedisOptionsFromEnv reads:
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand, used when host/port are not both set
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
func RedisOptionsFromEnv() RedisOptions {
    host := os.Getenv("REDIS_HOST")
    port := os.Getenv("REDIS_PORT")
    addr := os.Getenv("REDIS_ADDR")
    if host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    dbNum := 0
    if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
        if n, err := strconv.Atoi(dbStr); err == nil {
            dbNum = n
        }
    }
    tlsEnv := os.Getenv("REDIS_TLS")
    return RedisOptions{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       dbNum,
        TLS:      strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
    }
}

// NewRedisClient connects and pings with a short timeout.  The returned
// client is nil when the server is unreachable.
func NewRedisClient(opts RedisOptions, log logrus.FieldLogger) *redis.Client {
    var tlsConf *tls.Config
    if opts.TLS {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      opts.Addr,
        Password:  opts.Password,
        DB:        opts.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        if log != nil {
            log.WithError(err).WithField("addr", opts.Addr).Warn("redis unavailable; continuing without it")
        }
        _ = client.Close()
        return nil
    }
    return client
}
