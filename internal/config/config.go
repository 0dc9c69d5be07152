// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

// Package config loads Akira configuration from built-in defaults, an optional
// YAML file, and environment variables, in increasing order of precedence.
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("invalid configuration")
//	}
//
// Config is immutable after load and safe for concurrent reads.
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Intake    IntakeConfig    `koanf:"intake"`
	Decision  DecisionConfig  `koanf:"decision"`
	Dispatch  DispatchConfig  `koanf:"dispatch"`
	Retention RetentionConfig `koanf:"retention"`
	Security  SecurityConfig  `koanf:"security"`
	NATS      NATSConfig      `koanf:"nats"`
	Logging   LoggingConfig   `koanf:"logging"`
	Seed      SeedConfig      `koanf:"seed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and tunes the event store.
//
// With Driver=duckdb the store is an embedded file at Path (":memory:" for tests).
// With Driver=postgres the store connects to DSN through the pgx stdlib driver.
type DatabaseConfig struct {
	Driver       string `koanf:"driver"`
	Path         string `koanf:"path"`
	DSN          string `koanf:"dsn"`
	MaxMemory    string `koanf:"max_memory"` // DuckDB only
	Threads      int    `koanf:"threads"`    // DuckDB only, 0 = NumCPU
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// WebSocketConfig holds real-time channel settings.
type WebSocketConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"` // empty = same-origin and origin-less clients only
	RequireToken   bool     `koanf:"require_token"`   // registerStore must carry a snippet token for the store
	SendBuffer     int      `koanf:"send_buffer"`
	InboundRate    float64  `koanf:"inbound_rate"` // messages per second per connection
	InboundBurst   int      `koanf:"inbound_burst"`
}

// IntakeConfig holds event intake settings.
type IntakeConfig struct {
	TokenHeader    string        `koanf:"token_header"`
	MaxBodyBytes   int64         `koanf:"max_body_bytes"`
	TokenCacheSize int           `koanf:"token_cache_size"`
	TokenCacheTTL  time.Duration `koanf:"token_cache_ttl"`
}

// DecisionConfig tunes the decision rules and the reaction-path budget.
type DecisionConfig struct {
	ContextWindow int           `koanf:"context_window"`
	Timeout       time.Duration `koanf:"timeout"`
	OfferCode     string        `koanf:"offer_code"`
	OfferDiscount string        `koanf:"offer_discount"`
	OfferMessage  string        `koanf:"offer_message"`
}

// DispatchConfig sizes the asynchronous reaction worker pool.
type DispatchConfig struct {
	Workers          int           `koanf:"workers"`
	QueueSize        int           `koanf:"queue_size"`
	BreakerFailures  uint32        `koanf:"breaker_failures"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
	BreakerHalfOpens uint32        `koanf:"breaker_half_open_requests"`
}

// RetentionConfig controls the maintenance job.
type RetentionConfig struct {
	Enabled              bool          `koanf:"enabled"`
	RunAt                string        `koanf:"run_at"` // HH:MM, local time
	RunOnStartup         bool          `koanf:"run_on_startup"`
	RawHorizon           time.Duration `koanf:"raw_horizon"`
	MaterialityThreshold int           `koanf:"materiality_threshold"`
	ChatMinDuration      time.Duration `koanf:"chat_min_duration"`
	FollowOnWindow       time.Duration `koanf:"follow_on_window"`
}

// SecurityConfig holds CORS and rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// NATSConfig enables mirroring of accepted events to NATS JetStream.
// Only honored by binaries built with -tags nats.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	Topic          string        `koanf:"topic"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SeedConfig provisions a demo tenant at startup, for local development.
type SeedConfig struct {
	DemoTenant      bool   `koanf:"demo_tenant"`
	TenantID        string `koanf:"tenant_id"`
	Token           string `koanf:"token"`
	Platform        string `koanf:"platform"`
	QueryAllocation int64  `koanf:"query_allocation"`
}

// Load reads configuration from defaults, an optional config file, and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
