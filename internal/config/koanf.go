// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/akira/config.yaml",
	"/etc/akira/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPath is loaded into the process environment before env vars are read.
// Variables already set in the environment win.
var DotEnvPath = ".env"

// DefaultConfig returns a Config with every default applied.
// These defaults are applied first, then overridden by config file and env vars.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:       DriverDuckDB,
			Path:         "/data/akira.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			MaxOpenConns: 10,
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{},
			RequireToken:   false,
			SendBuffer:     256,
			InboundRate:    5,
			InboundBurst:   10,
		},
		Intake: IntakeConfig{
			TokenHeader:    "x-akira-token",
			MaxBodyBytes:   64 << 10,
			TokenCacheSize: 4096,
			TokenCacheTTL:  30 * time.Second,
		},
		Decision: DecisionConfig{
			ContextWindow: 5,
			Timeout:       3 * time.Second,
			OfferCode:     "SAVE5",
			OfferDiscount: "5% OFF ENTIRE ORDER",
			OfferMessage:  "Welcome back! Use code SAVE5 for 5% off this order—we saved your cart.",
		},
		Dispatch: DispatchConfig{
			Workers:          4,
			QueueSize:        256,
			BreakerFailures:  5,
			BreakerTimeout:   30 * time.Second,
			BreakerHalfOpens: 1,
		},
		Retention: RetentionConfig{
			Enabled:              true,
			RunAt:                "03:00",
			RunOnStartup:         false,
			RawHorizon:           90 * 24 * time.Hour,
			MaterialityThreshold: 10,
			ChatMinDuration:      30 * time.Second,
			FollowOnWindow:       4 * time.Hour,
		},
		Security: SecurityConfig{
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:5500",
				"http://localhost:5500",
			},
			RateLimitReqs:     600,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			Topic:          "akira.events.accepted",
			PublishTimeout: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Seed: SeedConfig{
			DemoTenant:      false,
			TenantID:        "store_demo000001",
			Token:           "akira_snip_demo0000000000000000000001",
			Platform:        "custom",
			QueryAllocation: 10000,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: DefaultConfig
//  2. Config File: optional YAML file, see DefaultConfigPaths
//  3. Environment Variables: mapped through envMappings, after .env preload
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(DotEnvPath); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv copies path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"websocket.allowed_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, YAML lists arrive as slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"port":             "server.port",
	"http_port":        "server.port",
	"http_host":        "server.host",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Database
	"database_driver":         "database.driver",
	"duckdb_path":             "database.path",
	"duckdb_max_memory":       "database.max_memory",
	"duckdb_threads":          "database.threads",
	"database_url":            "database.dsn",
	"database_max_open_conns": "database.max_open_conns",

	// WebSocket
	"ws_allowed_origins": "websocket.allowed_origins",
	"ws_require_token":   "websocket.require_token",
	"ws_send_buffer":     "websocket.send_buffer",
	"ws_inbound_rate":    "websocket.inbound_rate",
	"ws_inbound_burst":   "websocket.inbound_burst",

	// Intake
	"intake_token_header":     "intake.token_header",
	"intake_max_body_bytes":   "intake.max_body_bytes",
	"intake_token_cache_size": "intake.token_cache_size",
	"intake_token_cache_ttl":  "intake.token_cache_ttl",

	// Decision
	"decision_context_window": "decision.context_window",
	"decision_timeout":        "decision.timeout",
	"offer_code":              "decision.offer_code",
	"offer_discount":          "decision.offer_discount",
	"offer_message":           "decision.offer_message",

	// Dispatch
	"dispatch_workers":           "dispatch.workers",
	"dispatch_queue_size":        "dispatch.queue_size",
	"dispatch_breaker_failures":  "dispatch.breaker_failures",
	"dispatch_breaker_timeout":   "dispatch.breaker_timeout",
	"dispatch_breaker_half_open": "dispatch.breaker_half_open_requests",

	// Retention
	"retention_enabled":               "retention.enabled",
	"retention_run_at":                "retention.run_at",
	"retention_run_on_startup":        "retention.run_on_startup",
	"retention_raw_horizon":           "retention.raw_horizon",
	"retention_materiality_threshold": "retention.materiality_threshold",
	"retention_chat_min_duration":     "retention.chat_min_duration",
	"retention_follow_on_window":      "retention.follow_on_window",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// NATS
	"nats_enabled":         "nats.enabled",
	"nats_url":             "nats.url",
	"nats_topic":           "nats.topic",
	"nats_publish_timeout": "nats.publish_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Seed
	"seed_demo_tenant":      "seed.demo_tenant",
	"seed_tenant_id":        "seed.tenant_id",
	"seed_token":            "seed.token",
	"seed_platform":         "seed.platform",
	"seed_query_allocation": "seed.query_allocation",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - PORT -> server.port
//   - DATABASE_URL -> database.dsn
//   - WS_ALLOWED_ORIGINS -> websocket.allowed_origins
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
