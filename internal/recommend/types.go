// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

// Package recommend implements the contextual recommendation pipeline:
// derive a request context from time, location and weather, retrieve
// candidates through tiers of progressively relaxed predicates, rank
// them deterministically and attach per-tour explanations.
//
// The package is free of storage and transport concerns. Collaborators
// are injected through the TourStore, WeatherService and
// ReasonGenerator interfaces.
package recommend

import (
	"context"
	"time"

	"github.com/wayfinder-app/wayfinder/internal/models"
)

// Preferences are the optional user-supplied filters. Empty fields
// apply no constraint.
type Preferences struct {
	TourType   models.TourType   `json:"tour_type,omitempty"`
	Category   string            `json:"category,omitempty"`
	PriceRange models.PriceRange `json:"price_range,omitempty"`
}

// Feedback carries tour ids the user has previously liked or disliked.
// Disliked ids are excluded from strict retrieval tiers; liked ids
// boost tours sharing a category during ranking.
type Feedback struct {
	Liked    []int64 `json:"liked,omitempty"`
	Disliked []int64 `json:"disliked,omitempty"`
}

// Request is one recommendation request. Lat and Lon are optional;
// when either is missing the pipeline runs without geo predicates and
// without distance ranking. A zero Timestamp means "now". A nil Limit
// means "use the configured default"; an explicit zero is honored and
// yields an empty result list.
type Request struct {
	Lat         *float64    `json:"lat,omitempty"`
	Lon         *float64    `json:"lon,omitempty"`
	Timestamp   time.Time   `json:"timestamp,omitempty"`
	Preferences Preferences `json:"preferences"`
	Feedback    Feedback    `json:"feedback"`
	Limit       *int        `json:"limit,omitempty"`
}

// HasPoint reports whether the request carries a complete coordinate.
func (r *Request) HasPoint() bool {
	return r.Lat != nil && r.Lon != nil
}

// Weather is a current-conditions observation.
type Weather struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_celsius"`
}

// Context is the derived situation a recommendation is made for.
// Weather is nil when the lookup failed, was disabled or no coordinate
// was supplied; derivation never fails on weather.
type Context struct {
	TimeOfDay models.TimeOfDay `json:"time_of_day"`
	Season    models.Season    `json:"season"`
	Weather   *Weather         `json:"weather,omitempty"`
}

// CandidateQuery is one retrieval tier's predicate set. Zero-valued
// fields disable their predicate: RadiusKm 0 means no geo constraint,
// an empty Types slice means no tour type constraint, and so on.
type CandidateQuery struct {
	Lat      *float64
	Lon      *float64
	RadiusKm float64
	// Types is the weather-derived tour type constraint.
	Types []models.TourType
	// PrefType is the user's stated tour type, applied on top of Types.
	PrefType   models.TourType
	TimeOfDay  models.TimeOfDay
	Category   string
	PriceRange models.PriceRange
	ExcludeIDs []int64
}

// Candidate is a retrieved tour. DistanceKm is nil when the query had
// no coordinate.
type Candidate struct {
	Tour       models.Tour
	DistanceKm *float64
}

// TourStore retrieves candidate tours and feedback-derived signals.
type TourStore interface {
	// QueryCandidates returns all tours matching the query's active
	// predicates. An empty result is not an error.
	QueryCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error)
	// LikedCategories returns the distinct categories of the given
	// tour ids. Unknown ids are skipped.
	LikedCategories(ctx context.Context, ids []int64) ([]string, error)
}

// WeatherService looks up current conditions for a coordinate.
type WeatherService interface {
	Current(ctx context.Context, lat, lon float64) (*Weather, error)
}

// ReasonGenerator produces a one-sentence explanation for why a tour
// fits the given context.
type ReasonGenerator interface {
	Reason(ctx context.Context, tour *models.Tour, rc Context) (string, error)
}

// AvailabilityScorer hooks a future availability signal into ranking.
// The default implementation scores every tour 0, which keeps the
// ranking unchanged until a real signal exists.
type AvailabilityScorer interface {
	AvailabilityScore(tour *models.Tour) float64
}

// AvailabilityScorerFunc adapts a function to AvailabilityScorer.
type AvailabilityScorerFunc func(tour *models.Tour) float64

// AvailabilityScore implements AvailabilityScorer.
func (f AvailabilityScorerFunc) AvailabilityScore(tour *models.Tour) float64 {
	return f(tour)
}

// NoAvailability is the default scorer.
var NoAvailability AvailabilityScorer = AvailabilityScorerFunc(func(*models.Tour) float64 {
	return 0
})

// RecommendedTour is one ranked result with its explanation.
type RecommendedTour struct {
	models.Tour
	DistanceKm *float64 `json:"distance_km,omitempty"`
	Reason     string   `json:"recommendation_reason"`
}

// Response is the full recommendation result. Tier reports which
// retrieval tier produced the candidates (1 strict, 2 relaxed radius,
// 3 geo only) and is 0 when every tier came back empty.
type Response struct {
	Context Context           `json:"context"`
	Tier    int               `json:"tier"`
	Tours   []RecommendedTour `json:"recommendations"`
}
