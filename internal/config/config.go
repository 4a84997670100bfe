package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
	LedgerMemory   = "memory"
)

type Config struct {
	Port string
	Env  string

	JWTSecret string
	JWTTTL    time.Duration

	RedisURL  string
	RedisPass string
	RedisDB   int

	DatabaseURL   string
	LedgerBackend string
	LedgerMigrate bool

	TableIdleTTL    time.Duration
	RoundsPerMinute int
}

// Load reads the configuration from the environment. JWT_SECRET is the only
// required value; a postgres ledger also needs DATABASE_URL.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getenv("PORT", "8080"),
		Env:             getenv("ENVIRONMENT", "development"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		RedisURL:        getenv("REDIS_URL", "localhost:6379"),
		RedisPass:       os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LedgerBackend:   strings.ToLower(getenv("LEDGER_BACKEND", LedgerPostgres)),
		RoundsPerMinute: 120,
	}

	var err error
	if cfg.JWTTTL, err = getenvDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TableIdleTTL, err = getenvDuration("TABLE_IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getenvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RoundsPerMinute, err = getenvInt("RATE_LIMIT_ROUNDS", cfg.RoundsPerMinute); err != nil {
		return nil, err
	}
	if cfg.LedgerMigrate, err = getenvBool("LEDGER_MIGRATE", true); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.LedgerBackend {
	case LedgerPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres ledger")
		}
	case LedgerRedis, LedgerMemory:
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.LedgerBackend)
	}
	if c.RoundsPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_ROUNDS must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
