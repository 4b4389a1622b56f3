package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings"

	"github.com/joho/godotenv"
)

// Store backends selectable with STORE.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values of the API server.  Each
// field corresponds to an environment variable.
type Config struct {
	Env            string   // application environment (e.g. "dev", "prod")
	Port           string   // HTTP port to listen on
	LogLevel       string   // logrus level name
	Store          string   // "mysql" or "memory"
	DBUser         string   // database username
	DBPass         string   // database password (optional)
	DBHost         string   // database host address
	DBPort         string   // database port number
	DBName         string   // database name
	JWTSecret      string   // secret used to sign JWTs
	AccessTTLMin   int      // access token time‑to‑live in minutes
	RefreshTTLDays int      // refresh token time‑to‑live in days
	BcryptCost     int      // bcrypt cost for password hashing
	CORSOrigins    []string // allowed browser origins
	RabbitURL      string   // broker for blog view events; empty disables publishing
	SeedAdminUser  string   // admin account created on an empty memory store
	SeedAdminPass  string
}

// Load reads an optional .env file and then the process environment.
// Required variables are enforced by must(); database settings are only
// required when the MySQL store is selected.
func Load() Config {
	// A missing .env is normal in containers; real env vars always win.
	_ = godotenv.Load()

	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		Store:          strings.ToLower(envStr("STORE", StoreMySQL)),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		CORSOrigins:    splitList(envStr("CORS_ORIGINS", "http://localhost:5173")),
		RabbitURL:      rabbitURL(),
		SeedAdminUser:  envStr("SEED_ADMIN_USERNAME", "admin"),
		SeedAdminPass:  os.Getenv("SEED_ADMIN_PASSWORD"),
	}
	switch cfg.Store {
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case StoreMemory:
	default:
		log.Fatalf("invalid STORE %q (want mysql or memory)", cfg.Store)
	}
	return cfg
}

// rabbitURL resolves the broker address.  Unlike the cache and limiter,
// publishing is opt-in: with no URL configured view increments are
// applied inline.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
