// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package websocket

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub starts a hub that stops when the test ends.
func setupHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	hub := NewHub(opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

// createTestClient adds a connectionless client to the hub.
func createTestClient(hub *Hub) *Client {
	c := newClient(hub, nil, "")
	hub.addClient(c)
	return c
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("client queue closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
		return Message{}
	}
}

func action(msg string) *models.Action {
	return &models.Action{Type: models.ActionDisplayInfoMessage, Data: models.ActionData{Message: msg}}
}

func TestNewHub_Defaults(t *testing.T) {
	hub := NewHub(Options{})
	if hub.opts.SendBuffer != 256 || hub.opts.InboundRate != 5 || hub.opts.InboundBurst != 10 {
		t.Errorf("defaults = %+v", hub.opts)
	}
	if hub.GetClientCount() != 0 || len(hub.rooms) != 0 {
		t.Error("new hub should be empty")
	}
}

func TestSubscribe(t *testing.T) {
	hub := NewHub(Options{})
	c := createTestClient(hub)

	if err := hub.Subscribe(c, "store_a"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if got := c.TenantID(); got != "store_a" {
		t.Errorf("TenantID() = %q", got)
	}
	if err := hub.Subscribe(c, "store_b"); !errors.Is(err, ErrAlreadySubscribed) {
		t.Errorf("second Subscribe() error = %v, want ErrAlreadySubscribed", err)
	}
	if err := hub.Subscribe(c, "store_a"); !errors.Is(err, ErrAlreadySubscribed) {
		t.Errorf("repeat Subscribe() error = %v, want ErrAlreadySubscribed", err)
	}
	if hub.RoomSize("store_a") != 1 || hub.RoomSize("store_b") != 0 {
		t.Errorf("room sizes = %d/%d", hub.RoomSize("store_a"), hub.RoomSize("store_b"))
	}
}

func TestSubscribe_UnknownClient(t *testing.T) {
	hub := NewHub(Options{})
	c := newClient(hub, nil, "")
	if err := hub.Subscribe(c, "store_a"); err == nil {
		t.Error("Subscribe() of a client not attached to the hub should fail")
	}
}

func TestPublish_EmptyRoom(t *testing.T) {
	var out bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&out))
	t.Cleanup(func() { logging.SetLogger(prev) })

	hub := NewHub(Options{})

	done := make(chan bool, 1)
	go func() { done <- hub.Publish("store_none", "u1", action("hi")) }()

	select {
	case ok := <-done:
		if ok {
			t.Error("Publish() to an empty room = true")
		}
	case <-time.After(time.Second):
		t.Fatal("Publish() to an empty room blocked")
	}

	if got := strings.Count(out.String(), "No active storefront connection"); got != 1 {
		t.Errorf("empty-room log lines = %d, want exactly 1\n%s", got, out.String())
	}
}

func TestPublish_DeliversToRoomOnly(t *testing.T) {
	hub := setupHub(t, Options{})
	a1 := createTestClient(hub)
	a2 := createTestClient(hub)
	b := createTestClient(hub)
	unregistered := createTestClient(hub)
	for c, tenant := range map[*Client]string{a1: "store_a", a2: "store_a", b: "store_b"} {
		if err := hub.Subscribe(c, tenant); err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
	}

	if !hub.Publish("store_a", "shopper1", action("hello")) {
		t.Fatal("Publish() = false")
	}

	for _, c := range []*Client{a1, a2} {
		msg := receive(t, c)
		if msg.Type != MessageTypeAction {
			t.Errorf("Type = %q", msg.Type)
		}
		payload, ok := msg.Data.(models.ActionPayload)
		if !ok {
			t.Fatalf("Data = %T", msg.Data)
		}
		if payload.TargetUser != "user_shopper1" || payload.Action.Data.Message != "hello" {
			t.Errorf("payload = %+v", payload)
		}
	}

	for _, c := range []*Client{b, unregistered} {
		select {
		case msg := <-c.send:
			t.Errorf("client outside the room received %+v", msg)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestPublish_PreservesOrder(t *testing.T) {
	hub := setupHub(t, Options{})
	c := createTestClient(hub)
	if err := hub.Subscribe(c, "store_a"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	messages := []string{"one", "two", "three", "four", "five"}
	for _, m := range messages {
		if !hub.Publish("store_a", "u1", action(m)) {
			t.Fatalf("Publish(%s) = false", m)
		}
	}
	for _, want := range messages {
		got := receive(t, c).Data.(models.ActionPayload).Action.Data.Message
		if got != want {
			t.Fatalf("received %q, want %q", got, want)
		}
	}
}

func TestDeliver_DropsSlowClient(t *testing.T) {
	hub := NewHub(Options{SendBuffer: 1})
	slow := createTestClient(hub)
	fast := createTestClient(hub)
	for _, c := range []*Client{slow, fast} {
		if err := hub.Subscribe(c, "store_a"); err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
	}

	first := Message{Type: MessageTypeAction, Data: "first"}
	hub.deliver(delivery{tenantID: "store_a", message: first})
	<-fast.send

	hub.deliver(delivery{tenantID: "store_a", message: Message{Type: MessageTypeAction, Data: "second"}})

	if hub.RoomSize("store_a") != 1 {
		t.Fatalf("RoomSize() = %d, want 1 after dropping the slow client", hub.RoomSize("store_a"))
	}
	if msg := <-slow.send; msg.Data != "first" {
		t.Errorf("slow client buffered %+v", msg)
	}
	if _, ok := <-slow.send; ok {
		t.Error("slow client queue should be closed")
	}
	if msg := <-fast.send; msg.Data != "second" {
		t.Errorf("fast client got %+v", msg)
	}
}

func TestRemoveClient(t *testing.T) {
	hub := NewHub(Options{})
	c := createTestClient(hub)
	if err := hub.Subscribe(c, "store_a"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	hub.removeClient(c)
	hub.removeClient(c)

	if hub.RoomSize("store_a") != 0 || hub.GetClientCount() != 0 {
		t.Errorf("room=%d clients=%d after remove", hub.RoomSize("store_a"), hub.GetClientCount())
	}
	if _, ok := hub.rooms["store_a"]; ok {
		t.Error("empty room should be deleted")
	}
	if _, ok := <-c.send; ok {
		t.Error("queue should be closed")
	}

	// Replies to dropped clients are discarded rather than panicking.
	hub.reply(c, Message{Type: MessageTypePong})
}

func TestRunWithContext_ClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(Options{})
	c := createTestClient(hub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if _, ok := <-c.send; ok {
		t.Error("client queue should be closed on shutdown")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("GetClientCount() = %d", hub.GetClientCount())
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled = %s", got)
	}

	expired, cancel2 := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel2()
	<-expired.Done()
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline = %s", got)
	}
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{
		Type: MessageTypeAction,
		Data: models.ActionPayload{TargetUser: "user_u1", Action: action("hi")},
	})
	if err != nil {
		t.Fatalf("MarshalMessage() error = %v", err)
	}
	want := `{"type":"akuraAction","data":{"targetUser":"user_u1","action":{"type":"DISPLAY_INFO_MESSAGE","data":{"message":"hi"}}}}`
	if string(data) != want {
		t.Errorf("MarshalMessage() = %s\nwant %s", data, want)
	}
}
