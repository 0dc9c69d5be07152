// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/websocket"
)

func newSocketServer(t *testing.T, origins []string) (*httptest.Server, *websocket.Hub) {
	t.Helper()

	hub := websocket.NewHub(websocket.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()

	cfg := &config.Config{WebSocket: config.WebSocketConfig{AllowedOrigins: origins}}
	h := NewHandler(Deps{Sockets: hub}, cfg)
	srv := httptest.NewServer(NewRouter(h, &config.SecurityConfig{RateLimitDisabled: true}).Setup())

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, hub
}

func dial(srv *httptest.Server, origin string) (*gorillaws.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return gorillaws.DefaultDialer.Dial(url, header)
}

func TestWebSocket_OriginCheck(t *testing.T) {
	srv, _ := newSocketServer(t, []string{"https://shop.example.com"})

	tests := []struct {
		name   string
		origin string
		wantOK bool
	}{
		{"allowed origin", "https://shop.example.com", true},
		{"other origin", "https://evil.example.com", false},
		{"missing origin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := dial(srv, tt.origin)
			if conn != nil {
				defer conn.Close()
			}
			if tt.wantOK {
				if err != nil {
					t.Fatalf("dial error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("dial succeeded, want rejection")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("response = %v, want 403", resp)
			}
		})
	}
}

func TestWebSocket_SameOriginDefault(t *testing.T) {
	srv, _ := newSocketServer(t, nil)

	conn, _, err := dial(srv, "")
	if err != nil {
		t.Fatalf("origin-less dial error = %v", err)
	}
	conn.Close()

	if _, _, err := dial(srv, "https://elsewhere.example.com"); err == nil {
		t.Error("cross-origin dial succeeded with no allowed origins")
	}
}

func TestWebSocket_RegisterThroughRouter(t *testing.T) {
	srv, hub := newSocketServer(t, []string{"*"})

	conn, _, err := dial(srv, "https://any.example.com")
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	frame, err := json.Marshal(map[string]interface{}{
		"type": websocket.MessageTypeRegisterStore,
		"data": websocket.RegisterStoreData{StoreID: "store_ws"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(gorillaws.TextMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var reply struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if reply.Type != websocket.MessageTypeRegistered {
		t.Fatalf("reply type = %q, want %q", reply.Type, websocket.MessageTypeRegistered)
	}
	if got := hub.RoomSize("store_ws"); got != 1 {
		t.Errorf("RoomSize = %d, want 1", got)
	}
}
