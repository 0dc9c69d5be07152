// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/akira/internal/models"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// setupWebSocketServer attaches every upgraded connection to hub.
func setupWebSocketServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		hub.Attach(conn, "127.0.0.1")
	}))
	t.Cleanup(server.Close)
	return server
}

// dialWebSocket establishes a WebSocket connection to the test server
func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{"type": msgType, "data": data})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return f
}

func expectError(t *testing.T, conn *websocket.Conn, want string) {
	t.Helper()
	f := read(t, conn)
	if f.Type != MessageTypeError {
		t.Fatalf("frame type = %q, want error", f.Type)
	}
	var data ErrorData
	if err := json.Unmarshal(f.Data, &data); err != nil {
		t.Fatalf("decode error data: %v", err)
	}
	if data.Message != want {
		t.Errorf("error message = %q, want %q", data.Message, want)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", msg)
}

func TestClient_RegisterAndReceiveAction(t *testing.T) {
	hub := setupHub(t, Options{})
	server := setupWebSocketServer(t, hub)
	conn := dialWebSocket(t, server)

	send(t, conn, MessageTypeRegisterStore, RegisterStoreData{StoreID: "store_a"})
	if f := read(t, conn); f.Type != MessageTypeRegistered {
		t.Fatalf("frame type = %q, want registered", f.Type)
	}

	if !hub.Publish("store_a", "shopper9", &models.Action{
		Type: models.ActionTriggerChatPrompt,
		Data: models.ActionData{Message: "Need help?"},
	}) {
		t.Fatal("Publish() = false after registration")
	}

	f := read(t, conn)
	if f.Type != "akuraAction" {
		t.Fatalf("frame type = %q", f.Type)
	}
	var payload models.ActionPayload
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.TargetUser != "user_shopper9" || payload.Action.Type != models.ActionTriggerChatPrompt {
		t.Errorf("payload = %+v", payload)
	}
}

func TestClient_Protocol(t *testing.T) {
	hub := setupHub(t, Options{})
	server := setupWebSocketServer(t, hub)
	conn := dialWebSocket(t, server)

	send(t, conn, MessageTypePing, nil)
	if f := read(t, conn); f.Type != MessageTypePong {
		t.Errorf("ping reply = %q, want pong", f.Type)
	}

	send(t, conn, "subscribeEverything", nil)
	expectError(t, conn, "Unknown message type.")

	send(t, conn, MessageTypeRegisterStore, map[string]string{})
	expectError(t, conn, "Missing storeId.")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectError(t, conn, "Malformed message.")

	send(t, conn, MessageTypeRegisterStore, RegisterStoreData{StoreID: "store_a"})
	if f := read(t, conn); f.Type != MessageTypeRegistered {
		t.Fatalf("frame type = %q, want registered", f.Type)
	}
	send(t, conn, MessageTypeRegisterStore, RegisterStoreData{StoreID: "store_b"})
	expectError(t, conn, "Connection already registered.")

	if hub.RoomSize("store_a") != 1 || hub.RoomSize("store_b") != 0 {
		t.Errorf("rooms = %d/%d", hub.RoomSize("store_a"), hub.RoomSize("store_b"))
	}
}

func TestSubscribeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"already registered", ErrAlreadySubscribed, "Connection already registered."},
		{"wrapped already registered", fmt.Errorf("subscribe: %w", ErrAlreadySubscribed), "Connection already registered."},
		{"detached connection", ErrNotAttached, "Registration failed."},
		{"other failure", errors.New("boom"), "Registration failed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subscribeErrorMessage(tt.err); got != tt.want {
				t.Errorf("subscribeErrorMessage(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestSubscribe_DetachedClientIsNotAlreadyRegistered(t *testing.T) {
	hub := setupHub(t, Options{})
	c := newClient(hub, nil, "")
	err := hub.Subscribe(c, "store_a")
	if !errors.Is(err, ErrNotAttached) {
		t.Fatalf("Subscribe() error = %v, want ErrNotAttached", err)
	}
	if errors.Is(err, ErrAlreadySubscribed) {
		t.Error("detached client reported as already registered")
	}
}

type fakeAuthorizer struct {
	allowed map[string]string
}

func (f fakeAuthorizer) AuthorizeSocket(_ context.Context, tenantID, token string) error {
	if f.allowed[tenantID] != token || token == "" {
		return errors.New("token does not belong to store")
	}
	return nil
}

func TestClient_Authorizer(t *testing.T) {
	hub := setupHub(t, Options{Authorizer: fakeAuthorizer{allowed: map[string]string{"store_a": "akira_snip_good"}}})
	server := setupWebSocketServer(t, hub)

	bad := dialWebSocket(t, server)
	send(t, bad, MessageTypeRegisterStore, RegisterStoreData{StoreID: "store_a", SnippetToken: "akira_snip_bad"})
	expectError(t, bad, "Unauthorized Store ID.")
	if hub.RoomSize("store_a") != 0 {
		t.Fatalf("rejected connection joined the room")
	}

	good := dialWebSocket(t, server)
	send(t, good, MessageTypeRegisterStore, RegisterStoreData{StoreID: "store_a", SnippetToken: "akira_snip_good"})
	if f := read(t, good); f.Type != MessageTypeRegistered {
		t.Fatalf("frame type = %q, want registered", f.Type)
	}
}

func TestClient_InboundRateLimit(t *testing.T) {
	hub := setupHub(t, Options{InboundRate: 0.001, InboundBurst: 1})
	server := setupWebSocketServer(t, hub)
	conn := dialWebSocket(t, server)

	send(t, conn, MessageTypePing, nil)
	if f := read(t, conn); f.Type != MessageTypePong {
		t.Fatalf("first ping reply = %q", f.Type)
	}
	send(t, conn, MessageTypePing, nil)
	expectError(t, conn, "Too many messages.")
}

func TestClient_DisconnectLeavesRoom(t *testing.T) {
	hub := setupHub(t, Options{})
	server := setupWebSocketServer(t, hub)
	conn := dialWebSocket(t, server)

	send(t, conn, MessageTypeRegisterStore, RegisterStoreData{StoreID: "store_a"})
	if f := read(t, conn); f.Type != MessageTypeRegistered {
		t.Fatalf("frame type = %q", f.Type)
	}
	_ = conn.Close()

	waitFor(t, func() bool { return hub.RoomSize("store_a") == 0 }, "room to empty")
	if hub.Publish("store_a", "u1", &models.Action{Type: models.ActionDisplayInfoMessage}) {
		t.Error("Publish() after disconnect = true")
	}
}
