package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig configures one Redis token bucket.  The API uses two:
// a general bucket for every route and a tighter one for credential
// endpoints (login, register, refresh).
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
	return loadBucket("RATE_LIMIT", RateLimitConfig{
		Enabled:        true,
		Capacity:       60,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_user_route",
		Prefix:         "rl",
	})
}

// LoadAuthRateLimitConfig builds the bucket guarding credential endpoints,
// keyed by client IP only.
func LoadAuthRateLimitConfig() RateLimitConfig {
	return loadBucket("RATE_LIMIT_AUTH", RateLimitConfig{
		Enabled:        true,
		Capacity:       10,
		RefillTokens:   1,
		RefillInterval: 6 * time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl:auth",
	})
}

func loadBucket(p string, def RateLimitConfig) RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool(p+"_ENABLED", def.Enabled),
		Capacity:       envInt(p+"_CAPACITY", def.Capacity),
		RefillTokens:   envInt(p+"_REFILL_TOKENS", def.RefillTokens),
		RefillInterval: envDur(p+"_REFILL_INTERVAL", def.RefillInterval),
		TTL:            envDur(p+"_TTL", def.TTL),
		KeyStrategy:    envStr(p+"_KEY_STRATEGY", def.KeyStrategy),
		Prefix:         envStr(p+"_PREFIX", def.Prefix),
		Debug:          envBool(p+"_DEBUG", def.Debug),
	}
	if b := envInt(p+"_BURST", -1); b > 0 {
		cfg.Capacity = b
	}
	if every := envDur(p+"_REFILL_EVERY", 0); every > 0 {
		cfg.RefillTokens = 1
		cfg.RefillInterval = every
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
