// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wayfinder-app/wayfinder/internal/config"
)

// NewRouter assembles the full route tree. Read endpoints are open;
// catalog writes sit behind the authenticator.
func NewRouter(h *Handlers, authn *Authenticator, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(&cfg.Security))
	r.Use(Instrument)
	r.Use(RateLimit(&cfg.Security))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.HealthLive)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		r.Post("/auth/login", h.Login)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/smart", h.SmartRecommendations)
			r.Post("/smart", h.SmartRecommendationsPost)
			r.Get("/nearby", h.NearbyTours)
			r.Get("/similar/{id}", h.SimilarTours)
			r.Get("/categories", h.Categories)
			r.Get("/stats", h.Stats)
			r.Get("/random", h.RandomTour)
		})

		r.Route("/tours", func(r chi.Router) {
			r.Get("/", h.ListTours)
			r.Get("/search", h.SearchTours)
			r.Get("/{id}", h.GetTour)

			r.Group(func(r chi.Router) {
				r.Use(authn.Require)
				r.Post("/", h.CreateTour)
				r.Put("/{id}", h.UpdateTour)
				r.Delete("/{id}", h.DeleteTour)
			})
		})
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
