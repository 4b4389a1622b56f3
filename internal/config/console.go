package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session backends of the admin console.
const (
	SessionFile   = "file"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

// Console is the configuration of the admin console.  Every key can come
// from a flag bound to the viper instance, a HOSPITAL_* environment
// variable or an optional config file, in that order of precedence.
type Console struct {
	APIURL         string
	Timeout        time.Duration
	LogLevel       string
	SessionBackend string
	SessionDir     string
	Redis          RedisOptions
	Concurrency    int  // bulk dispatch width; 1 keeps items sequential
	BatchEndpoints bool // try the /bulk endpoints before per-item calls
}

// NewConsoleViper returns a viper instance with the console defaults and
// environment binding applied.  Callers bind their flags on top of it.
func NewConsoleViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("HOSPITAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("log_level", "warn")
	v.SetDefault("session.backend", SessionFile)
	v.SetDefault("session.dir", defaultSessionDir())
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("bulk.concurrency", 1)
	v.SetDefault("bulk.batch", true)

	v.SetConfigName("hospital-admin")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config"))
	}
	return v
}

// LoadConsole reads the optional config file and resolves the console
// settings.  A missing config file is not an error.
func LoadConsole(v *viper.Viper) (Console, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Console{}, err
		}
	}
	backend := strings.ToLower(v.GetString("session.backend"))
	switch backend {
	case SessionFile, SessionRedis, SessionMemory:
	default:
		backend = SessionFile
	}
	conc := v.GetInt("bulk.concurrency")
	if conc < 1 {
		conc = 1
	}
	return Console{
		APIURL:         strings.TrimRight(v.GetString("api_url"), "/"),
		Timeout:        v.GetDuration("timeout"),
		LogLevel:       v.GetString("log_level"),
		SessionBackend: backend,
		SessionDir:     v.GetString("session.dir"),
		Redis: RedisOptions{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TLS:      v.GetBool("redis.tls"),
		},
		Concurrency:    conc,
		BatchEndpoints: v.GetBool("bulk.batch"),
	}, nil
}

func defaultSessionDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "hospital-admin")
	}
	return ".hospital-admin"
}
