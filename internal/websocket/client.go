// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package websocket

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/akira/internal/logging"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMessageSize   = 4 * 1024
	authorizeTimeout = 5 * time.Second
)

// clientIDCounter gives clients a stable order for fan-out.
var clientIDCounter atomic.Uint64

// inboundMessage is a client frame; Data is decoded per Type.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// RegisterStoreData is the payload of a registerStore frame.
type RegisterStoreData struct {
	StoreID      string `json:"storeId"`
	SnippetToken string `json:"snippetToken,omitempty"`
}

// ErrorData is the payload of an error frame.
type ErrorData struct {
	Message string `json:"message"`
}

// Client is one storefront connection. Its room is fixed by the first
// successful registerStore.
type Client struct {
	id       uint64
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	limiter  *rate.Limiter
	remoteIP string

	// tenantID is guarded by hub.mu.
	tenantID string
}

func newClient(hub *Hub, conn *websocket.Conn, remoteIP string) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, hub.opts.SendBuffer),
		limiter:  rate.NewLimiter(rate.Limit(hub.opts.InboundRate), hub.opts.InboundBurst),
		remoteIP: remoteIP,
	}
}

// Attach registers an upgraded connection with the hub and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn, remoteIP string) *Client {
	client := newClient(h, conn, remoteIP)
	h.addClient(client)
	go client.writePump()
	go client.readPump()
	return client
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// TenantID returns the registered store, or "" before registration.
func (c *Client) TenantID() string {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.tenantID
}

func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}

		if !c.limiter.Allow() {
			c.replyError("Too many messages.")
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.replyError("Malformed message.")
			continue
		}
		c.handle(&msg)
	}
}

func (c *Client) handle(msg *inboundMessage) {
	switch msg.Type {
	case MessageTypePing:
		c.hub.reply(c, Message{Type: MessageTypePong})

	case MessageTypeRegisterStore:
		var data RegisterStoreData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.StoreID == "" {
			c.replyError("Missing storeId.")
			return
		}

		if auth := c.hub.opts.Authorizer; auth != nil {
			ctx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
			err := auth.AuthorizeSocket(ctx, data.StoreID, data.SnippetToken)
			cancel()
			if err != nil {
				logging.NewSecurityLogger().LogEvent(&logging.SecurityEvent{
					Event:           logging.SecurityEventSocketRejected,
					ClaimedTenantID: data.StoreID,
					Token:           data.SnippetToken,
					IPAddress:       c.remoteIP,
					Reason:          err.Error(),
				})
				c.replyError("Unauthorized Store ID.")
				return
			}
		}

		if err := c.hub.Subscribe(c, data.StoreID); err != nil {
			logging.Debug().Err(err).Uint64("client_id", c.id).Str("store_id", data.StoreID).Msg("registerStore rejected")
			c.replyError(subscribeErrorMessage(err))
			return
		}
		c.hub.reply(c, Message{Type: MessageTypeRegistered, Data: RegisterStoreData{StoreID: data.StoreID}})

	default:
		c.replyError("Unknown message type.")
	}
}

// subscribeErrorMessage maps a Subscribe failure to the text sent to the snippet.
func subscribeErrorMessage(err error) string {
	if errors.Is(err, ErrAlreadySubscribed) {
		return "Connection already registered."
	}
	return "Registration failed."
}

func (c *Client) replyError(message string) {
	c.hub.reply(c, Message{Type: MessageTypeError, Data: ErrorData{Message: message}})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := MarshalMessage(message)
			if err != nil {
				logging.Error().Err(err).Str("type", message.Type).Msg("failed to encode websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
