// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package api

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/models"
	"github.com/tomtom215/akira/internal/websocket"
)

const defaultTokenHeader = "x-akira-token"

// Store is the slice of the event store the handlers use.
type Store interface {
	AppendEvent(ctx context.Context, tenantID string, ev *models.Event) (string, error)
	TenantByID(ctx context.Context, tenantID string) (*models.Tenant, error)
	UpsertProduct(ctx context.Context, p *models.Product) error
	Ping(ctx context.Context) error
}

// Admitter authenticates intake requests and checks quota.
type Admitter interface {
	Admit(ctx context.Context, token, claimedTenantID string) (*models.Tenant, error)
	Invalidate(tenantID string)
}

// Submitter accepts an appended event for asynchronous processing. Submit must
// not block.
type Submitter interface {
	Submit(ev *models.Event) bool
}

// SocketAttacher takes ownership of an upgraded realtime connection.
type SocketAttacher interface {
	Attach(conn *gorillaws.Conn, remoteIP string) *websocket.Client
}

// Deps are the collaborators of a Handler. Mirror is optional.
type Deps struct {
	Store      Store
	Gate       Admitter
	Dispatcher Submitter
	Mirror     Submitter
	Sockets    SocketAttacher
}

// Handler serves every Akira route.
type Handler struct {
	store      Store
	gate       Admitter
	dispatcher Submitter
	mirror     Submitter
	sockets    SocketAttacher

	tokenHeader    string
	maxBodyBytes   int64
	allowedOrigins []string
	startTime      time.Time
}

// NewHandler returns a Handler. cfg may be nil in tests.
func NewHandler(deps Deps, cfg *config.Config) *Handler {
	h := &Handler{
		store:        deps.Store,
		gate:         deps.Gate,
		dispatcher:   deps.Dispatcher,
		mirror:       deps.Mirror,
		sockets:      deps.Sockets,
		tokenHeader:  defaultTokenHeader,
		maxBodyBytes: 64 << 10,
		startTime:    time.Now(),
	}
	if cfg != nil {
		if cfg.Intake.TokenHeader != "" {
			h.tokenHeader = cfg.Intake.TokenHeader
		}
		if cfg.Intake.MaxBodyBytes > 0 {
			h.maxBodyBytes = cfg.Intake.MaxBodyBytes
		}
		h.allowedOrigins = cfg.WebSocket.AllowedOrigins
	}
	return h
}

// TokenHeader returns the header the snippet token is read from.
func (h *Handler) TokenHeader() string {
	return h.tokenHeader
}

// Root answers GET / with a plain banner.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Akira's API is live and running!")
}

// decodeBody reads a size-limited JSON body into v.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

var errEmptyBody = errors.New("empty request body")

// clientIP returns the caller address. chi's RealIP has already replaced
// RemoteAddr with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
