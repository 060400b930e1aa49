// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/wayfinder-app/wayfinder/internal/logging"
	"github.com/wayfinder-app/wayfinder/internal/validation"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// Login handles POST /api/v1/auth/login. Available only in jwt mode.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.jwt == nil || h.verifier == nil {
		rw.NotFound("authentication is disabled")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationFailed(verr.Error(), verr.Details())
		return
	}

	if !h.verifier.Verify(req.Username, req.Password) {
		logging.Warn().Str("username", req.Username).Msg("Failed login attempt")
		rw.Unauthorized("invalid credentials")
		return
	}

	token, err := h.jwt.GenerateToken(req.Username, "admin")
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Success(map[string]interface{}{
		"token":      token,
		"token_type": "Bearer",
	})
}
