// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/metrics"
	"github.com/tomtom215/akira/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeAction        = models.ActionMessageType
	MessageTypeRegisterStore = "registerStore"
	MessageTypeRegistered    = "registered"
	MessageTypeError         = "error"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
)

// Publish outcomes, also used as metric labels.
const (
	PublishDelivered = "enqueued"
	PublishNoRoom    = "no_room"
	PublishDropped   = "queue_full"
)

// ErrAlreadySubscribed is returned when a connection registers a second time.
var ErrAlreadySubscribed = errors.New("connection already registered to a store")

// ErrNotAttached is returned when a connection has already left the hub.
var ErrNotAttached = errors.New("connection is not registered with the hub")

// Message is a WebSocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Authorizer checks a registerStore request. A nil Authorizer accepts any storeId.
type Authorizer interface {
	AuthorizeSocket(ctx context.Context, tenantID, token string) error
}

// Options configures a Hub.
type Options struct {
	// SendBuffer is the per-client outbound queue. A client whose queue is
	// full when a message arrives is dropped.
	SendBuffer int

	// InboundRate and InboundBurst limit client messages per second.
	InboundRate  float64
	InboundBurst int

	Authorizer Authorizer
}

type delivery struct {
	tenantID string
	message  Message
}

// Hub keeps one room per tenant and delivers actions to every connection in
// the room. All deliveries pass through one goroutine, so messages published
// for the same tenant arrive in publish order.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]struct{}
	deliveries chan delivery
	opts       Options
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.InboundRate <= 0 {
		opts.InboundRate = 5
	}
	if opts.InboundBurst <= 0 {
		opts.InboundBurst = 10
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]struct{}),
		deliveries: make(chan delivery, 256),
		opts:       opts,
	}
}

// RunWithContext delivers queued actions until ctx is canceled, then closes
// every client.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case d := <-h.deliveries:
			h.deliver(d)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Debug().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client connected")
}

// reply queues a protocol response for client, unless it has been dropped or
// its queue is full.
func (h *Hub) reply(client *Client, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- msg:
	default:
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	removed := h.dropLocked(client)
	total := len(h.clients)
	h.mu.Unlock()

	if removed {
		logging.Debug().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// dropLocked removes client from the hub and its room and closes its queue.
// Must be called with mu held.
func (h *Hub) dropLocked(client *Client) bool {
	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	if client.tenantID != "" {
		if room, ok := h.rooms[client.tenantID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, client.tenantID)
			}
		}
		metrics.WSRegisteredClients.Dec()
	}
	close(client.send)
	metrics.WSConnections.Dec()
	return true
}

// Subscribe joins client to the tenant's room. A connection joins at most one
// room for its lifetime.
func (h *Hub) Subscribe(client *Client, tenantID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.tenantID != "" {
		return ErrAlreadySubscribed
	}
	if _, ok := h.clients[client]; !ok {
		return ErrNotAttached
	}

	client.tenantID = tenantID
	room, ok := h.rooms[tenantID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[tenantID] = room
	}
	room[client] = struct{}{}
	metrics.WSRegisteredClients.Inc()

	logging.Info().
		Str("store_id", tenantID).
		Int("room_size", len(room)).
		Msg("Storefront registered for realtime actions")
	return nil
}

// Publish queues action for every connection in the tenant's room, addressed
// to endUserID. It never blocks. It returns false when the room is empty or
// the delivery queue is full.
func (h *Hub) Publish(tenantID, endUserID string, action *models.Action) bool {
	if h.RoomSize(tenantID) == 0 {
		metrics.RecordWSPublish(PublishNoRoom)
		logging.Info().
			Str("store_id", tenantID).
			Str("user_id", endUserID).
			Msg("No active storefront connection, action not delivered")
		return false
	}

	msg := Message{
		Type: MessageTypeAction,
		Data: models.ActionPayload{
			TargetUser: models.TargetUserKey(endUserID),
			Action:     action,
		},
	}

	select {
	case h.deliveries <- delivery{tenantID: tenantID, message: msg}:
		metrics.RecordWSPublish(PublishDelivered)
		return true
	default:
		metrics.RecordWSPublish(PublishDropped)
		logging.Warn().Str("store_id", tenantID).Msg("Delivery queue full, dropping action")
		return false
	}
}

// deliver sends a message to every client in the room in connection order.
// Clients whose queue is full are dropped.
func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[d.tenantID]
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		select {
		case client.send <- d.message:
		default:
			logging.Warn().
				Str("store_id", d.tenantID).
				Uint64("client_id", client.id).
				Msg("Slow websocket client dropped")
			metrics.WSClientsDropped.Inc()
			h.dropLocked(client)
		}
	}
}

// RoomSize returns the number of connections registered for tenantID.
func (h *Hub) RoomSize(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tenantID])
}

// GetClientCount returns the number of connected clients, registered or not.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// logGracefulShutdown closes all clients and logs why the hub stopped.
// ctx.Err() is not logged as an error since cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		h.dropLocked(client)
	}
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
