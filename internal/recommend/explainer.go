// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package recommend

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wayfinder-app/wayfinder/internal/logging"
	"github.com/wayfinder-app/wayfinder/internal/metrics"
	"github.com/wayfinder-app/wayfinder/internal/models"
)

// Explainer attaches a natural-language reason to each recommended
// tour. Generator failures are per-tour: the affected tour gets the
// fallback reason and the response proceeds.
type Explainer struct {
	generator   ReasonGenerator
	concurrency int
	timeout     time.Duration
}

// NewExplainer creates an explainer. generator may be nil, in which
// case every tour receives the fallback reason.
func NewExplainer(generator ReasonGenerator, concurrency int, timeout time.Duration) *Explainer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Explainer{generator: generator, concurrency: concurrency, timeout: timeout}
}

// FallbackReason is the generic template used when no generated
// explanation is available for a tour.
func FallbackReason(tour *models.Tour, rc Context) string {
	return fmt.Sprintf("%s is a great choice for a %s visit.", tour.Name, rc.TimeOfDay)
}

// Explain fills in reasons for the given tours with bounded
// concurrency. Each generator call carries its own timeout; a timeout
// or error falls back to the generic reason for that tour only. When
// the parent context is already done the remaining tours all take the
// fallback rather than blocking.
func (e *Explainer) Explain(ctx context.Context, tours []RecommendedTour, rc Context) []RecommendedTour {
	if len(tours) == 0 {
		return tours
	}

	if e.generator == nil {
		for i := range tours {
			tours[i].Reason = FallbackReason(&tours[i].Tour, rc)
			metrics.ExplanationFallbacks.Inc()
		}
		return tours
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range tours {
		g.Go(func() error {
			tour := &tours[i].Tour

			callCtx, cancel := context.WithTimeout(gctx, e.timeout)
			reason, err := e.generator.Reason(callCtx, tour, rc)
			cancel()

			if err != nil || reason == "" {
				if err != nil {
					logging.Warn().Err(err).Int64("tour_id", tour.ID).
						Msg("Explanation generation failed, using fallback")
				}
				metrics.ExplanationFallbacks.Inc()
				reason = FallbackReason(tour, rc)
			}
			tours[i].Reason = reason
			return nil
		})
	}

	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
	return tours
}
