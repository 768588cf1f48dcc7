package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	Postgres PostgresConfig
	Redis    RedisConfig
	Chain    ChainConfig
	Audit    AuditConfig
}

// PostgresConfig holds the connection settings for the durable stores.
// An empty URL selects the in-memory stores.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds the connection settings for the metadata cache.
// An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ChainConfig drives the block height clock. Height advances by one every
// BlockInterval starting at Genesis.
type ChainConfig struct {
	Genesis       time.Time
	BlockInterval time.Duration
}

// AuditConfig controls audit event delivery. A zero AsyncBuffer keeps
// delivery synchronous.
type AuditConfig struct {
	AsyncBuffer int
}

// MetadataCacheTTL bounds how long a badge snapshot may be served from cache.
var MetadataCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CREST_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		Postgres: PostgresConfig{
			URL:          os.Getenv("CREST_POSTGRES_URL"),
			MaxOpenConns: envInt("CREST_POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("CREST_POSTGRES_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CREST_REDIS_URL"),
			PoolSize:     envInt("CREST_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CREST_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("CREST_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CREST_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CREST_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Chain: ChainConfig{
			Genesis:       envTime("CREST_CHAIN_GENESIS"),
			BlockInterval: envDuration("CREST_CHAIN_BLOCK_INTERVAL", 10*time.Second),
		},
		Audit: AuditConfig{
			AsyncBuffer: envInt("CREST_AUDIT_ASYNC_BUFFER", 0),
		},
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func envTime(key string) time.Time {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
