// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

/*
Package api provides the HTTP surface of Akira.

Routes:

  - POST /api/v1/events/capture: storefront snippet event intake
  - POST /hook/{storeId}: product catalog webhook
  - POST /health: storefront connectivity probe
  - GET /ws: real-time action channel
  - GET /api/v1/health/live, /api/v1/health/ready: process probes
  - GET /metrics: Prometheus scrape endpoint
  - GET /: liveness banner

Intake Flow:

The capture handler validates the body and asks the Identity & Quota Gate to
admit the request. It appends the event to the store, which counts usage in the
same transaction, and then answers 202. Only after the response is written is
the event handed to the reaction dispatcher and, when configured, the event
mirror. Neither can delay or fail the HTTP response.

Middleware Stack:

Applied globally in order:

 1. Request ID (X-Request-ID, propagated into the logging context)
 2. chi RealIP
 3. chi Recoverer
 4. CORS (go-chi/cors, configured origins)
 5. Prometheus request metrics

Intake and webhook routes are additionally rate limited per client IP
with go-chi/httprate.

Usage Example:

	handler := api.NewHandler(api.Deps{
	    Store:      db,
	    Gate:       gate,
	    Dispatcher: dispatcher,
	    Sockets:    hub,
	}, cfg)
	router := api.NewRouter(handler, &cfg.Security)
	srv := &http.Server{Handler: router.Setup()}
*/
package api
