// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables. Provider credentials
// have no embedded defaults: startup fails fast when they are absent.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis). Optional: when empty the sweep runs without
	// notification dedup.
	RedisURL string `env:"REDIS_URL" envDefault:""`

	// Messaging provider (Evolution API)
	EvolutionAPIURL   string        `env:"EVOLUTION_API_URL,required"`
	EvolutionAPIKey   string        `env:"EVOLUTION_API_KEY,required"`
	EvolutionInstance string        `env:"EVOLUTION_INSTANCE,required"`
	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"15s"`
	SendDelayMs       int           `env:"SEND_DELAY_MS" envDefault:"1200"`

	// Phone handling
	CountryCode string `env:"COUNTRY_CODE" envDefault:"55"`

	// Assistant checks
	BillLookaheadDays   int           `env:"BILL_LOOKAHEAD_DAYS" envDefault:"3"`
	InactivityThreshold time.Duration `env:"INACTIVITY_THRESHOLD" envDefault:"72h"`

	// Sweep trigger auth: Argon2id PHC hash of the scheduler's bearer token.
	CronTokenHash string `env:"CRON_TOKEN_HASH,required"`

	// Optional in-process sweep schedule (cron expression). Empty means the
	// sweep only runs when the HTTP trigger is invoked.
	SweepSchedule    string `env:"SWEEP_SCHEDULE" envDefault:""`
	SweepConcurrency int    `env:"SWEEP_CONCURRENCY" envDefault:"1"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.SweepConcurrency < 1 {
		cfg.SweepConcurrency = 1
	}
	if cfg.BillLookaheadDays < 0 {
		return nil, fmt.Errorf("BILL_LOOKAHEAD_DAYS must not be negative, got %d", cfg.BillLookaheadDays)
	}
	return cfg, nil
}
