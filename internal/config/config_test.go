// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "PORT must be between"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "DATABASE_DRIVER must be one of"},
		{"duckdb without path", func(c *Config) { c.Database.Path = "" }, "DUCKDB_PATH is required"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = DriverPostgres }, "DATABASE_URL is required"},
		{"postgres with dsn", func(c *Config) {
			c.Database.Driver = DriverPostgres
			c.Database.DSN = "postgres://localhost/akira"
		}, ""},
		{"bad ws origin", func(c *Config) { c.WebSocket.AllowedOrigins = []string{"ftp://x"} }, "WS_ALLOWED_ORIGINS"},
		{"ws origin with path", func(c *Config) { c.WebSocket.AllowedOrigins = []string{"https://shop.example.com/cart"} }, "without path"},
		{"zero context window", func(c *Config) { c.Decision.ContextWindow = 0 }, "DECISION_CONTEXT_WINDOW"},
		{"zero workers", func(c *Config) { c.Dispatch.Workers = 0 }, "DISPATCH_WORKERS"},
		{"bad run_at", func(c *Config) { c.Retention.RunAt = "3am" }, "RETENTION_RUN_AT"},
		{"bad run_at ignored when disabled", func(c *Config) {
			c.Retention.Enabled = false
			c.Retention.RunAt = "3am"
		}, ""},
		{"short horizon", func(c *Config) { c.Retention.RawHorizon = time.Hour }, "RETENTION_RAW_HORIZON"},
		{"wildcard cors in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.CORSOrigins = []string{"*"}
		}, "wildcard"},
		{"cors origin without scheme", func(c *Config) { c.Security.CORSOrigins = []string{"shop.example.com"} }, "CORS_ORIGINS"},
		{"rate limit window", func(c *Config) { c.Security.RateLimitWindow = time.Millisecond }, "RATE_LIMIT_WINDOW"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"nats bad scheme", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.URL = "http://localhost:4222"
		}, "NATS_URL is invalid"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"seed in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Seed.DemoTenant = true
		}, "SEED_DEMO_TENANT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParseRunAt(t *testing.T) {
	h, m, err := ParseRunAt("03:00")
	if err != nil || h != 3 || m != 0 {
		t.Errorf("ParseRunAt(03:00) = %d, %d, %v", h, m, err)
	}
	h, m, err = ParseRunAt("23:45")
	if err != nil || h != 23 || m != 45 {
		t.Errorf("ParseRunAt(23:45) = %d, %d, %v", h, m, err)
	}
	for _, bad := range []string{"", "24:00", "3", "aa:bb"} {
		if _, _, err := ParseRunAt(bad); err == nil {
			t.Errorf("ParseRunAt(%q) should fail", bad)
		}
	}
}

func TestValidateNATSURL(t *testing.T) {
	for _, ok := range []string{"nats://127.0.0.1:4222", "tls://nats.example.com", "wss://nats.example.com:443"} {
		if err := validateNATSURL(ok); err != nil {
			t.Errorf("validateNATSURL(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"http://localhost:4222", "nats://"} {
		if err := validateNATSURL(bad); err == nil {
			t.Errorf("validateNATSURL(%q) should fail", bad)
		}
	}
}
