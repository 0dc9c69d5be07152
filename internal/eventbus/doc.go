// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

/*
Package eventbus mirrors accepted storefront events to NATS JetStream so that
downstream consumers (analytics, warehousing) can follow the stream without
querying the event store.

The mirror is best effort. Intake hands each stored event to Publisher.Submit,
which never blocks; a background loop (Publisher.Serve, run by the supervisor)
publishes through Watermill with the event id as Nats-Msg-Id, so JetStream
drops duplicates inside its dedupe window. A circuit breaker stops publish
attempts while NATS is unreachable. A failed or dropped mirror publish never
affects the 202 already sent to the storefront.

NATS support is compiled only with the nats build tag:

	go build -tags nats ./cmd/server

Without it, New returns ErrNotCompiled and the server runs without a mirror.
*/
package eventbus
