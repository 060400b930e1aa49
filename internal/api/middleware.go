// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/wayfinder-app/wayfinder/internal/auth"
	"github.com/wayfinder-app/wayfinder/internal/config"
	"github.com/wayfinder-app/wayfinder/internal/logging"
	"github.com/wayfinder-app/wayfinder/internal/metrics"
)

// RequestID attaches a request id to the context and the
// X-Request-ID response header, honoring an inbound header if present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the status code for metrics and logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Instrument records request metrics and an access log line. The
// endpoint label is the chi route pattern, not the raw path, so
// cardinality stays bounded.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		duration := time.Since(start)
		metrics.RecordAPIRequest(r.Method, endpoint, strconv.Itoa(sr.status), duration)

		logging.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sr.status).
			Dur("duration", duration).
			Str("request_id", logging.RequestIDFromContext(r.Context())).
			Msg("Request handled")
	})
}

// CORS builds the CORS middleware from the configured origins.
func CORS(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// RateLimit limits requests per client IP within the configured
// window and counts rejections.
func RateLimit(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return httprate.Limit(cfg.RateLimitReqs, cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			NewResponseWriter(w, r).Error(http.StatusTooManyRequests,
				ErrCodeTooManyRequests, "rate limit exceeded")
		}),
	)
}

// Authenticator gates the write endpoints. In "none" mode every
// request passes; in "jwt" mode a valid bearer token is required.
type Authenticator struct {
	mode string
	jwt  *auth.JWTManager
}

// NewAuthenticator creates an authenticator for the configured mode.
// jwtManager may be nil in "none" mode.
func NewAuthenticator(mode string, jwtManager *auth.JWTManager) *Authenticator {
	return &Authenticator{mode: mode, jwt: jwtManager}
}

// Require is the middleware enforcing authentication.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.mode == "none" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			NewResponseWriter(w, r).Unauthorized("missing bearer token")
			return
		}

		if _, err := a.jwt.ValidateToken(token); err != nil {
			NewResponseWriter(w, r).Unauthorized("invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
