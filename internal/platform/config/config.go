package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures process-level configuration. Parsed from the environment
// so main stays lean.
type Server struct {
	Addr string `env:"RANGELOG_ADDR" envDefault:":8080"`

	// PostgresURL selects the durable stores; empty means in-memory stores.
	PostgresURL string `env:"RANGELOG_POSTGRES_URL"`

	// RedisURL enables the owner summary cache; empty disables it.
	RedisURL string `env:"RANGELOG_REDIS_URL"`

	// AssociationTolerance bounds the environment time-window match.
	AssociationTolerance time.Duration `env:"RANGELOG_ASSOCIATION_TOLERANCE" envDefault:"30m"`

	// SummaryCacheTTL enforces retention for cached owner summaries.
	SummaryCacheTTL time.Duration `env:"RANGELOG_SUMMARY_CACHE_TTL" envDefault:"5m"`

	Redis RedisConfig `envPrefix:"RANGELOG_REDIS_"`
}

// RedisConfig tunes the go-redis client pool.
type RedisConfig struct {
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// FromEnv builds a Server config from environment variables.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
