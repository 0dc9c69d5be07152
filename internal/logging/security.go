// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package logging

import (
	"github.com/rs/zerolog"
)

// Security event names.
const (
	SecurityEventInvalidToken     = "invalid_snippet_token"
	SecurityEventIdentityMismatch = "store_id_mismatch"
	SecurityEventSocketRejected   = "socket_registration_rejected"
)

// SecurityEvent is one authentication decision worth auditing.
type SecurityEvent struct {
	Event           string
	TenantID        string // tenant the token resolved to, if any
	ClaimedTenantID string // tenant the caller declared
	Token           string // raw token, masked before writing
	IPAddress       string
	UserAgent       string
	Reason          string
}

// SecurityLogger writes authentication failures as structured security
// signals under component=security. Tokens are never written in full.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger returns a SecurityLogger on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("security")}
}

// NewSecurityLoggerWithLogger returns a SecurityLogger on a specific logger.
//
//nolint:gocritic // zerolog.Logger is passed by value by design of the library
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "security").Logger()}
}

// LogEvent writes ev at warn level.
func (l *SecurityLogger) LogEvent(ev *SecurityEvent) {
	e := l.logger.Warn().Str("event", ev.Event)
	if ev.TenantID != "" {
		e = e.Str("store_id", ev.TenantID)
	}
	if ev.ClaimedTenantID != "" {
		e = e.Str("claimed_store_id", ev.ClaimedTenantID)
	}
	if ev.Token != "" {
		e = e.Str("token", SanitizeToken(ev.Token))
	}
	if ev.IPAddress != "" {
		e = e.Str("ip", ev.IPAddress)
	}
	if ev.UserAgent != "" {
		e = e.Str("user_agent", truncateString(ev.UserAgent, 100))
	}
	if ev.Reason != "" {
		e = e.Str("reason", ev.Reason)
	}
	e.Msg("security signal")
}

// LogInvalidToken records a token that resolved to no tenant.
func (l *SecurityLogger) LogInvalidToken(token, claimedTenantID, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:           SecurityEventInvalidToken,
		ClaimedTenantID: claimedTenantID,
		Token:           token,
		IPAddress:       ip,
	})
}

// LogIdentityMismatch records a valid token presented for another tenant.
func (l *SecurityLogger) LogIdentityMismatch(resolvedTenantID, claimedTenantID, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:           SecurityEventIdentityMismatch,
		TenantID:        resolvedTenantID,
		ClaimedTenantID: claimedTenantID,
		IPAddress:       ip,
	})
}

// SanitizeToken keeps the first and last 4 characters of a token.
//
//	"akira_snip_abcdefghijklmnopqrstuvwxy" -> "akir...vwxy"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
