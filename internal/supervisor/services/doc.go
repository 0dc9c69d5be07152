// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

// Package services adapts Akira components whose lifecycle is not already
// Serve(ctx) error to suture.Service.
//
//   - HTTPServerService: *http.Server, with graceful drain on shutdown
//   - WebSocketHubService: the realtime hub's delivery loop
//
// The reaction dispatcher, the retention scheduler and the event mirror
// implement suture.Service themselves and are added to the tree directly.
package services
