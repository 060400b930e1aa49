// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

// Package main is the entry point for the Wayfinder server.
//
// Wayfinder recommends tours from a local catalog based on the caller's
// situation: local time of day and season, optionally the caller's
// coordinates, live weather at that point, and stated preferences. A
// tiered retrieval pass relaxes constraints until candidates appear,
// a deterministic ranker orders them, and an optional language-model
// client phrases a one-line reason per tour.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables over config.yaml over
//     built-in defaults (Koanf v2)
//  2. Database: DuckDB tour catalog, optionally seeded with demo data
//  3. External clients: OpenWeatherMap and an OpenAI-compatible
//     completion endpoint, each behind a circuit breaker; both optional
//  4. Authentication: JWT or no-auth mode
//  5. Recommendation engine: context derivation, tiered retrieval,
//     ranking, explanation fan-out
//  6. HTTP server: chi REST API plus a Prometheus /metrics endpoint
//
// # Configuration
//
// The most common settings, as environment variables:
//
//	export DATABASE_PATH=/data/wayfinder.duckdb
//	export WEATHER_ENABLED=true
//	export WEATHER_API_KEY=your-openweathermap-key
//	export OPENAI_ENABLED=true
//	export OPENAI_API_KEY=your-api-key
//	export AUTH_MODE=none  # For development
//	./wayfinder
//
// Production with JWT on the catalog write endpoints:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=admin
//	export ADMIN_PASSWORD=secure-password
//	./wayfinder
//
// When the weather client is disabled, recommendations still work; the
// weather predicate simply falls back to its default. When the OpenAI
// client is disabled, a deterministic local generator phrases the
// reasons instead.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Checkpoints and closes the database
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wayfinder-app/wayfinder/internal/api"
	"github.com/wayfinder-app/wayfinder/internal/auth"
	"github.com/wayfinder-app/wayfinder/internal/config"
	"github.com/wayfinder-app/wayfinder/internal/database"
	"github.com/wayfinder-app/wayfinder/internal/explain"
	"github.com/wayfinder-app/wayfinder/internal/logging"
	"github.com/wayfinder-app/wayfinder/internal/recommend"
	"github.com/wayfinder-app/wayfinder/internal/weather"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("weather_enabled", cfg.Weather.Enabled).
		Bool("openai_enabled", cfg.OpenAI.Enabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Weather is optional. A nil service skips the weather fetch during
	// context derivation and the weather predicate uses its default.
	var weatherSvc recommend.WeatherService
	if cfg.Weather.Enabled {
		weatherSvc = weather.NewClient(&cfg.Weather)
		logging.Info().Str("base_url", cfg.Weather.BaseURL).Msg("Weather client enabled")
	} else {
		logging.Info().Msg("Weather integration disabled - context omits live weather")
	}

	// Explanations always have a generator. The remote client is used
	// when enabled; otherwise a deterministic local one.
	var generator recommend.ReasonGenerator
	if cfg.OpenAI.Enabled {
		generator = explain.NewClient(&cfg.OpenAI)
		logging.Info().
			Str("base_url", cfg.OpenAI.BaseURL).
			Str("model", cfg.OpenAI.Model).
			Msg("Explanation client enabled")
	} else {
		generator = explain.NewStub()
		logging.Info().Msg("Explanation API disabled - using local generator")
	}

	var jwtManager *auth.JWTManager
	var verifier *auth.Verifier
	switch cfg.Security.AuthMode {
	case "jwt":
		if jwtManager, err = auth.NewJWTManager(&cfg.Security); err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		if verifier, err = auth.NewVerifier(&cfg.Security); err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize credential verifier")
		}
		logging.Info().Msg("JWT authentication enabled")
	case "none":
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("Catalog write endpoints are publicly accessible - do not expose this server to untrusted networks")
	}

	engine := recommend.NewEngine(db, weatherSvc, generator, nil, &cfg.Recommend)

	handlers := api.NewHandlers(db, engine, cfg, jwtManager, verifier)
	authn := api.NewAuthenticator(cfg.Security.AuthMode, jwtManager)
	router := api.NewRouter(handlers, authn, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}
