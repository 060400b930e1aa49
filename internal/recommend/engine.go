// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package recommend

import (
	"context"
	"strconv"
	"time"

	"github.com/wayfinder-app/wayfinder/internal/config"
	"github.com/wayfinder-app/wayfinder/internal/metrics"
)

// Engine wires the pipeline stages together. One engine serves all
// requests; it holds no per-request state.
type Engine struct {
	deriver   *ContextDeriver
	retriever *Retriever
	ranker    *Ranker
	explainer *Explainer

	defaultLimit   int
	maxLimit       int
	requestTimeout time.Duration
}

// NewEngine builds an engine from its collaborators. weather,
// generator and availability may each be nil to disable their signal.
func NewEngine(store TourStore, weather WeatherService, generator ReasonGenerator,
	availability AvailabilityScorer, cfg *config.RecommendConfig) *Engine {
	return &Engine{
		deriver:        NewContextDeriver(weather),
		retriever:      NewRetriever(store, cfg.TierOneRadiusKm, cfg.TierTwoRadiusKm),
		ranker:         NewRanker(store, availability),
		explainer:      NewExplainer(generator, cfg.ExplainConcurrency, cfg.ExplainTimeout),
		defaultLimit:   cfg.DefaultLimit,
		maxLimit:       cfg.MaxLimit,
		requestTimeout: cfg.RequestTimeout,
	}
}

// Recommend runs the full pipeline: derive context, retrieve the first
// non-empty tier, rank, truncate to the limit and attach explanations.
// An empty catalog or all-empty tiers produce an empty tour list with
// a populated context, not an error.
func (e *Engine) Recommend(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()

	// A nil limit falls back to the default; an explicit zero stays
	// zero and produces an empty list.
	limit := e.defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
		if limit < 0 {
			limit = 0
		}
	}
	if limit > e.maxLimit {
		limit = e.maxLimit
	}

	rc := e.deriver.Derive(ctx, req)

	candidates, tier, err := e.retriever.Retrieve(ctx, req, rc)
	if err != nil {
		return nil, err
	}

	ranked, err := e.ranker.Rank(ctx, candidates, req)
	if err != nil {
		return nil, err
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	tours := make([]RecommendedTour, len(ranked))
	for i, c := range ranked {
		tours[i] = RecommendedTour{Tour: c.Tour, DistanceKm: c.DistanceKm}
	}
	tours = e.explainer.Explain(ctx, tours, rc)

	tierLabel := "none"
	if tier > 0 {
		tierLabel = strconv.Itoa(tier)
	}
	metrics.RecordRecommendation(tierLabel, len(candidates), time.Since(start))

	return &Response{Context: rc, Tier: tier, Tours: tours}, nil
}
