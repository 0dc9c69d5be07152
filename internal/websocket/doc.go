// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

/*
Package websocket pushes decision engine actions to storefront snippets.

Each storefront page opens one connection and registers for its store. The hub
keeps one room per store; an action for a shopper is sent to every connection
in the store's room and the snippet filters on the targetUser key.

	┌───────────┐  Publish(store, user, action)
	│    Hub    │ ──────────────┐
	└─────┬─────┘               ▼
	      │              rooms[store_a]
	      │           ┌────────┴────────┐
	      │        Client1           Client2
	      └── rooms[store_b] ── Client3

Protocol (JSON text frames, {"type": ..., "data": ...}):

  - registerStore {storeId, snippetToken}: join a room. Answered with
    registered or error. Only the first successful registration counts.
  - ping: answered with pong.
  - akuraAction {targetUser: "user_<id>", action}: server to client.
  - error {message}: server to client.

When an Authorizer is configured, registerStore must carry a snippet token
that belongs to the store.

Each client has two goroutines:
  - readPump: decodes frames, applies the per-connection rate limit
    (golang.org/x/time/rate) and handles registration and pings
  - writePump: writes queued frames and keepalive pings

A client whose outbound queue is full when an action is fanned out is
dropped. Publish never blocks; it returns false when the room is empty or the
hub's delivery queue is full.

Usage:

	hub := websocket.NewHub(websocket.Options{SendBuffer: 256})
	go hub.RunWithContext(ctx)

	conn, _ := upgrader.Upgrade(w, r, nil)
	hub.Attach(conn, clientIP)

	hub.Publish("store_abc", "shopper1", action)
*/
package websocket
