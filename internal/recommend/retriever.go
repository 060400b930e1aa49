// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package recommend

import (
	"context"
	"fmt"

	"github.com/wayfinder-app/wayfinder/internal/logging"
	"github.com/wayfinder-app/wayfinder/internal/models"
)

// weatherTypes is the weather-derived tour type constraint. Rain
// confines results to indoor tours; every other condition, including
// unknown weather, admits outdoor and dual-mode tours.
func weatherTypes(w *Weather) []models.TourType {
	if w != nil && w.Condition == "Rain" {
		return []models.TourType{models.TourTypeIndoor}
	}
	return []models.TourType{models.TourTypeOutdoor, models.TourTypeBoth}
}

// tierSpec builds one retrieval tier's query from the request and
// context. Tiers are a fixed ordered list evaluated first-non-empty.
type tierSpec struct {
	number int
	build  func(req *Request, rc Context) CandidateQuery
}

func strictQuery(req *Request, rc Context, radiusKm float64) CandidateQuery {
	q := CandidateQuery{
		TimeOfDay:  rc.TimeOfDay,
		Types:      weatherTypes(rc.Weather),
		PrefType:   req.Preferences.TourType,
		Category:   req.Preferences.Category,
		PriceRange: req.Preferences.PriceRange,
		ExcludeIDs: req.Feedback.Disliked,
	}
	if req.HasPoint() {
		q.Lat, q.Lon, q.RadiusKm = req.Lat, req.Lon, radiusKm
	}
	return q
}

// Retriever runs the tiered candidate search against a tour store.
type Retriever struct {
	store TourStore
	tiers []tierSpec
}

// NewRetriever creates a retriever. tierOneKm doubles as the tier 3
// radius; tierTwoKm is the relaxed middle tier.
func NewRetriever(store TourStore, tierOneKm, tierTwoKm float64) *Retriever {
	return &Retriever{
		store: store,
		tiers: []tierSpec{
			{1, func(req *Request, rc Context) CandidateQuery {
				return strictQuery(req, rc, tierOneKm)
			}},
			{2, func(req *Request, rc Context) CandidateQuery {
				return strictQuery(req, rc, tierTwoKm)
			}},
			{3, func(req *Request, rc Context) CandidateQuery {
				// Geo only. Every other predicate is dropped,
				// including the disliked-tour exclusion.
				q := CandidateQuery{}
				if req.HasPoint() {
					q.Lat, q.Lon, q.RadiusKm = req.Lat, req.Lon, tierOneKm
				}
				return q
			}},
		},
	}
}

// Retrieve attempts each tier in order and returns the first non-empty
// candidate set with its tier number. All tiers empty yields a nil
// slice and tier 0, not an error.
func (r *Retriever) Retrieve(ctx context.Context, req *Request, rc Context) ([]Candidate, int, error) {
	for _, tier := range r.tiers {
		q := tier.build(req, rc)
		candidates, err := r.store.QueryCandidates(ctx, q)
		if err != nil {
			return nil, 0, fmt.Errorf("tier %d query: %w", tier.number, err)
		}
		if len(candidates) > 0 {
			logging.Debug().
				Int("tier", tier.number).
				Int("candidates", len(candidates)).
				Msg("Candidate tier matched")
			return candidates, tier.number, nil
		}
	}
	return nil, 0, nil
}
