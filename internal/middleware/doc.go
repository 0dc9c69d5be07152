// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

/*
Package middleware provides the HTTP middleware shared by every Akira route.

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation ids.
  - PrometheusMetrics: request count, latency and in-flight gauge, labeled by
    chi route pattern.

Both are plain func(http.Handler) http.Handler and plug into chi directly:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

PrometheusMetrics must run inside the chi router (r.Use, not wrapping the
router from outside), otherwise the route pattern is not resolved yet and
every request is labeled "unmatched". Its response writer supports
http.Hijacker so the /ws upgrade passes through it.
*/
package middleware
