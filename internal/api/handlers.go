// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package api

import (
	"context"
	"errors"

	"github.com/wayfinder-app/wayfinder/internal/auth"
	"github.com/wayfinder-app/wayfinder/internal/config"
	"github.com/wayfinder-app/wayfinder/internal/database"
	"github.com/wayfinder-app/wayfinder/internal/models"
	"github.com/wayfinder-app/wayfinder/internal/recommend"
	"github.com/wayfinder-app/wayfinder/internal/validation"
)

// TourCatalog is the storage surface the handlers need. *database.DB
// implements it; tests substitute fakes.
type TourCatalog interface {
	CreateTour(ctx context.Context, t *models.Tour) (*models.Tour, error)
	GetTour(ctx context.Context, id int64) (*models.Tour, error)
	UpdateTour(ctx context.Context, t *models.Tour) (*models.Tour, error)
	DeleteTour(ctx context.Context, id int64) error
	ListTours(ctx context.Context, f database.TourFilter) ([]models.Tour, int, error)
	SearchTours(ctx context.Context, query string, limit int) ([]models.Tour, error)
	SimilarTours(ctx context.Context, id int64, limit int) ([]models.Tour, error)
	NearbyTours(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]database.NearbyTour, error)
	Categories(ctx context.Context) ([]database.CategoryCount, error)
	Stats(ctx context.Context) (*database.CatalogStats, error)
	RandomTour(ctx context.Context) (*models.Tour, error)
	Ping(ctx context.Context) error
}

var _ TourCatalog = (*database.DB)(nil)

// Recommender runs the recommendation pipeline.
type Recommender interface {
	Recommend(ctx context.Context, req *recommend.Request) (*recommend.Response, error)
}

var _ Recommender = (*recommend.Engine)(nil)

// Handlers bundles the dependencies of all HTTP handlers.
type Handlers struct {
	catalog  TourCatalog
	engine   Recommender
	cfg      *config.Config
	jwt      *auth.JWTManager
	verifier *auth.Verifier
}

// NewHandlers creates the handler set. jwt and verifier may be nil
// when authentication is disabled.
func NewHandlers(catalog TourCatalog, engine Recommender, cfg *config.Config,
	jwt *auth.JWTManager, verifier *auth.Verifier) *Handlers {
	return &Handlers{
		catalog:  catalog,
		engine:   engine,
		cfg:      cfg,
		jwt:      jwt,
		verifier: verifier,
	}
}

func asValidationError(err error, target **validation.RequestValidationError) bool {
	return errors.As(err, target)
}
