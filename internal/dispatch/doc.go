// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

// Package dispatch runs the post-acceptance reaction for each stored event:
// read the shopper's context window, ask the decision engine for an action,
// and publish it to the storefront's realtime room.
//
// Tasks are sharded over a fixed set of workers by tenant and end-user, so
// events from one shopper are handled in submission order. Submit never
// blocks the intake request; when a shard's queue is full the task is dropped
// and counted.
//
// Each task runs under its own timeout. The context read goes through a
// circuit breaker so a failing store is not hit by every queued task.
//
// Two events from the same shopper submitted close together may both read a
// window that includes neither of them. Events are stored before they are
// submitted, so the later task normally sees the earlier event.
//
// The Dispatcher is a suture.Service:
//
//	d := dispatch.New(db, engine, hub, dispatch.Options{Workers: 4, QueueSize: 256})
//	tree.AddMessagingService(d)
//	...
//	d.Submit(&event)
package dispatch
