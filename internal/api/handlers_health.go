// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package api

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// HealthLive handles GET /api/v1/health/live. It only proves the
// process is serving requests.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(startTime).String(),
	})
}

// HealthReady handles GET /api/v1/health/ready. Readiness requires a
// reachable database.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.catalog.Ping(r.Context()); err != nil {
		rw.ServiceUnavailable("database unreachable")
		return
	}
	rw.Success(map[string]interface{}{
		"status": "ready",
	})
}
