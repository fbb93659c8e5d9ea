// Package config loads service configuration from the environment via
// envconfig struct tags.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type PostgresConfig struct {
	DSN             string        `envconfig:"PG_DSN" required:"true"`
	MaxOpenConns    int           `envconfig:"PG_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PG_MAX_IDLE_CONNS" default:"10"`
	ConnMaxIdleTime time.Duration `envconfig:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `envconfig:"PG_CONN_MAX_LIFETIME" default:"30m"`
}

type RedisConfig struct {
	// URL selects the Redis-backed change notifier; empty means the
	// in-process fan-out.
	URL string `envconfig:"REDIS_URL" default:""`
}

type BookingConfig struct {
	MaxAttempts  int           `envconfig:"BOOKING_MAX_ATTEMPTS" default:"3"`
	RetryBackoff time.Duration `envconfig:"BOOKING_RETRY_BACKOFF" default:"50ms"`
}

type API struct {
	Port            uint16        `envconfig:"PORT" default:"8080"`
	LogLevel        slog.Level    `envconfig:"LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	Postgres PostgresConfig
	Redis    RedisConfig
	Booking  BookingConfig
}

// LoadAPI reads the API service configuration from the environment.
func LoadAPI() (*API, error) {
	cfg := new(API)

	err := envconfig.Process("arena", cfg)
	if err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	return cfg, nil
}
