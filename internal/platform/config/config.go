package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr          string
	LedgerBaseURL string

	// Health probe tuning for the remote ledger service.
	HealthRecheckInterval time.Duration
	HealthProbeTimeout    time.Duration

	// Bounded-staleness cache for the bulk queries.
	CacheTTL time.Duration

	// Local mirror snapshot persistence.
	SnapshotPath     string
	SnapshotDebounce time.Duration

	Redis    RedisConfig
	Postgres PostgresConfig
}

// RedisConfig configures the optional redis snapshot backend. An empty URL
// means redis is not configured.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional postgres mirror store. An empty DSN
// means postgres is not configured.
type PostgresConfig struct {
	DSN string
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	return Config{
		Addr:                  envStr("PROVENANT_ADDR", ":8080"),
		LedgerBaseURL:         envStr("PROVENANT_LEDGER_URL", "http://localhost:9090"),
		HealthRecheckInterval: envDuration("PROVENANT_HEALTH_RECHECK", 30*time.Second),
		HealthProbeTimeout:    envDuration("PROVENANT_HEALTH_TIMEOUT", 1500*time.Millisecond),
		CacheTTL:              envDuration("PROVENANT_CACHE_TTL", 15*time.Second),
		SnapshotPath:          envStr("PROVENANT_SNAPSHOT_PATH", "provenant-snapshot.json"),
		SnapshotDebounce:      envDuration("PROVENANT_SNAPSHOT_DEBOUNCE", time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("PROVENANT_REDIS_URL"),
			DialTimeout:  envDuration("PROVENANT_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PROVENANT_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PROVENANT_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("PROVENANT_POSTGRES_DSN"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Accept plain seconds for operator convenience.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
