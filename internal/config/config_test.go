package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConsoleDefaults(t *testing.T) {
	t.Setenv("HOSPITAL_API_URL", "http://api.local:9000/")
	t.Setenv("HOSPITAL_BULK_CONCURRENCY", "0")
	t.Setenv("HOSPITAL_SESSION_BACKEND", "floppy")

	v := NewConsoleViper()
	v.AddConfigPath(t.TempDir())
	cfg, err := LoadConsole(v)
	require.NoError(t, err)

	assert.Equal(t, "http://api.local:9000", cfg.APIURL)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, SessionFile, cfg.SessionBackend)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.True(t, cfg.BatchEndpoints)
}

func TestRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)

	auth := LoadAuthRateLimitConfig()
	assert.Equal(t, "ip_route", auth.KeyStrategy)
	assert.Equal(t, "rl:auth", auth.Prefix)
}

func TestCacheMethodsUpperCased(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
