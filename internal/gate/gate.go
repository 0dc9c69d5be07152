// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/akira/internal/cache"
	"github.com/tomtom215/akira/internal/database"
	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/metrics"
	"github.com/tomtom215/akira/internal/models"
)

// TenantResolver looks up tenants by snippet token. It must return
// database.ErrNotFound for unknown tokens.
type TenantResolver interface {
	TenantByToken(ctx context.Context, token string) (*models.Tenant, error)
}

// Options configures a Gate.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration

	// Security receives failed authentications. Defaults to the global
	// security logger.
	Security *logging.SecurityLogger
}

// Gate authenticates intake requests and applies the soft quota check.
type Gate struct {
	resolver TenantResolver
	tokens   *cache.LRU[*models.Tenant]
	security *logging.SecurityLogger
}

// New returns a Gate backed by resolver.
func New(resolver TenantResolver, opts Options) *Gate {
	security := opts.Security
	if security == nil {
		security = logging.NewSecurityLogger()
	}
	return &Gate{
		resolver: resolver,
		tokens:   cache.NewLRU[*models.Tenant](opts.CacheSize, opts.CacheTTL),
		security: security,
	}
}

// Admit resolves token and checks it against claimedTenantID and the tenant's
// allocation. The returned tenant is a snapshot and must not be modified.
//
// Errors are *AuthenticationError, *IdentityMismatchError, *QuotaExceededError,
// or a wrapped resolver failure.
func (g *Gate) Admit(ctx context.Context, token, claimedTenantID string) (*models.Tenant, error) {
	tenant, err := g.Authenticate(ctx, token, claimedTenantID)
	if err != nil {
		return nil, err
	}

	if tenant.QuotaExhausted() {
		return nil, &QuotaExceededError{
			TenantID:   tenant.ID,
			Usage:      tenant.CurrentMonthlyUsage,
			Allocation: tenant.QueryAllocation,
		}
	}
	return tenant, nil
}

// Authenticate is Admit without the quota check.
func (g *Gate) Authenticate(ctx context.Context, token, claimedTenantID string) (*models.Tenant, error) {
	if token == "" {
		return nil, &AuthenticationError{Reason: "missing token"}
	}

	tenant, err := g.resolve(ctx, token)
	if errors.Is(err, database.ErrNotFound) {
		g.security.LogInvalidToken(token, claimedTenantID, ClientIPFromContext(ctx))
		return nil, &AuthenticationError{Reason: "unknown token"}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve snippet token: %w", err)
	}

	if tenant.ID != claimedTenantID {
		g.security.LogIdentityMismatch(tenant.ID, claimedTenantID, ClientIPFromContext(ctx))
		return nil, &IdentityMismatchError{ResolvedTenantID: tenant.ID, ClaimedTenantID: claimedTenantID}
	}
	return tenant, nil
}

// AuthorizeSocket checks a realtime room registration. An exhausted quota does
// not prevent a storefront from receiving actions.
func (g *Gate) AuthorizeSocket(ctx context.Context, tenantID, token string) error {
	_, err := g.Authenticate(ctx, token, tenantID)
	return err
}

func (g *Gate) resolve(ctx context.Context, token string) (*models.Tenant, error) {
	if t, ok := g.tokens.Get(token); ok {
		metrics.RecordTokenCacheLookup(true)
		return t, nil
	}
	metrics.RecordTokenCacheLookup(false)

	t, err := g.resolver.TenantByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	g.tokens.Add(token, t)
	return t, nil
}

// Invalidate drops any cached snapshot of tenantID so the next Admit reads
// fresh usage.
func (g *Gate) Invalidate(tenantID string) {
	n := g.tokens.RemoveFunc(func(t *models.Tenant) bool { return t.ID == tenantID })
	if n > 0 {
		logging.Debug().Str("store_id", tenantID).Int("entries", n).Msg("Invalidated cached tenant")
	}
}

// Clear empties the token cache.
func (g *Gate) Clear() {
	g.tokens.Clear()
}

// CacheStats reports token cache usage.
func (g *Gate) CacheStats() cache.Stats {
	return g.tokens.Stats()
}

type clientIPKey struct{}

// WithClientIP attaches the caller's address for security logging.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the address set by WithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
