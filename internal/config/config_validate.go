// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package config

import (
	"fmt"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateWebSocket,
		c.validateIntake,
		c.validateDecision,
		c.validateDispatch,
		c.validateRetention,
		c.validateSecurity,
		c.validateNATS,
		c.validateLogging,
		c.validateSeed,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// validateDatabase requires a path for DuckDB and a DSN for PostgreSQL.
func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DATABASE_DRIVER=duckdb")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be one of: duckdb, postgres")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be at least 1")
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	if c.WebSocket.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1")
	}
	if c.WebSocket.InboundRate <= 0 {
		return fmt.Errorf("WS_INBOUND_RATE must be positive")
	}
	if c.WebSocket.InboundBurst < 1 {
		return fmt.Errorf("WS_INBOUND_BURST must be at least 1")
	}
	return validateOrigins(c.WebSocket.AllowedOrigins, "WS_ALLOWED_ORIGINS")
}

func (c *Config) validateIntake() error {
	if c.Intake.TokenHeader == "" {
		return fmt.Errorf("INTAKE_TOKEN_HEADER is required")
	}
	if c.Intake.MaxBodyBytes < 1024 {
		return fmt.Errorf("INTAKE_MAX_BODY_BYTES must be at least 1024")
	}
	if c.Intake.TokenCacheSize < 1 {
		return fmt.Errorf("INTAKE_TOKEN_CACHE_SIZE must be at least 1")
	}
	if c.Intake.TokenCacheTTL <= 0 {
		return fmt.Errorf("INTAKE_TOKEN_CACHE_TTL must be positive")
	}
	return nil
}

func (c *Config) validateDecision() error {
	if c.Decision.ContextWindow < 1 || c.Decision.ContextWindow > 100 {
		return fmt.Errorf("DECISION_CONTEXT_WINDOW must be between 1 and 100")
	}
	if c.Decision.Timeout <= 0 {
		return fmt.Errorf("DECISION_TIMEOUT must be positive")
	}
	if c.Decision.OfferCode == "" {
		return fmt.Errorf("OFFER_CODE is required")
	}
	return nil
}

func (c *Config) validateDispatch() error {
	if c.Dispatch.Workers < 1 || c.Dispatch.Workers > 256 {
		return fmt.Errorf("DISPATCH_WORKERS must be between 1 and 256")
	}
	if c.Dispatch.QueueSize < 1 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE must be at least 1")
	}
	if c.Dispatch.BreakerFailures < 1 {
		return fmt.Errorf("DISPATCH_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

// validateRetention only checks retention settings when the job is enabled.
func (c *Config) validateRetention() error {
	if !c.Retention.Enabled {
		return nil
	}
	if _, _, err := ParseRunAt(c.Retention.RunAt); err != nil {
		return fmt.Errorf("RETENTION_RUN_AT %w", err)
	}
	if c.Retention.RawHorizon < 24*time.Hour {
		return fmt.Errorf("RETENTION_RAW_HORIZON must be at least 24h")
	}
	if c.Retention.MaterialityThreshold < 0 {
		return fmt.Errorf("RETENTION_MATERIALITY_THRESHOLD must be >= 0")
	}
	if c.Retention.ChatMinDuration <= 0 {
		return fmt.Errorf("RETENTION_CHAT_MIN_DURATION must be positive")
	}
	if c.Retention.FollowOnWindow <= 0 {
		return fmt.Errorf("RETENTION_FOLLOW_ON_WINDOW must be positive")
	}
	return nil
}

// ParseRunAt parses an HH:MM wall clock time.
func ParseRunAt(runAt string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", runAt)
	if err != nil {
		return 0, 0, fmt.Errorf("must be HH:MM, got %q", runAt)
	}
	return t.Hour(), t.Minute(), nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production. " +
			"Set the storefront origins explicitly: CORS_ORIGINS=https://shop.example.com")
	}
	if err := validateOrigins(c.Security.CORSOrigins, "CORS_ORIGINS"); err != nil {
		return err
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if wildcard CORS should be logged at startup.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS()
}

// validateNATS validates NATS configuration (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.Topic == "" {
		return fmt.Errorf("NATS_TOPIC is required when NATS_ENABLED=true")
	}
	if c.NATS.PublishTimeout <= 0 {
		return fmt.Errorf("NATS_PUBLISH_TIMEOUT must be positive")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateSeed refuses the demo tenant in production.
func (c *Config) validateSeed() error {
	if !c.Seed.DemoTenant {
		return nil
	}
	if c.IsProduction() {
		return fmt.Errorf("SEED_DEMO_TENANT is not allowed in production")
	}
	if c.Seed.TenantID == "" || c.Seed.Token == "" {
		return fmt.Errorf("SEED_TENANT_ID and SEED_TOKEN are required when SEED_DEMO_TENANT=true")
	}
	if c.Seed.QueryAllocation < 1 {
		return fmt.Errorf("SEED_QUERY_ALLOCATION must be at least 1")
	}
	return nil
}
