// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Ranker orders candidates deterministically. The availability scorer
// is an inert hook kept for a future inventory signal.
type Ranker struct {
	store        TourStore
	availability AvailabilityScorer
}

// NewRanker creates a ranker. availability may be nil, which disables
// the availability signal.
func NewRanker(store TourStore, availability AvailabilityScorer) *Ranker {
	if availability == nil {
		availability = NoAvailability
	}
	return &Ranker{store: store, availability: availability}
}

// Rank sorts candidates by, in priority order: ascending distance
// rounded to whole kilometers (only when the request had coordinates),
// descending feedback score, descending rating, ascending id. The id
// key makes the order total, so equal-keyed inputs cannot reorder
// between runs. Ranking itself never errors; the only error source is
// resolving liked-tour categories.
func (r *Ranker) Rank(ctx context.Context, candidates []Candidate, req *Request) ([]Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	liked, err := r.likedCategorySet(ctx, req.Feedback.Liked)
	if err != nil {
		return nil, err
	}

	type scored struct {
		c        Candidate
		kmBucket float64
		feedback float64
	}
	scoredList := make([]scored, len(candidates))
	for i, c := range candidates {
		s := scored{c: c}
		if c.DistanceKm != nil {
			s.kmBucket = math.Round(*c.DistanceKm)
		}
		if liked[c.Tour.Category] {
			s.feedback = 1
		}
		s.feedback += r.availability.AvailabilityScore(&c.Tour)
		scoredList[i] = s
	}

	useDistance := req.HasPoint()
	sort.Slice(scoredList, func(i, j int) bool {
		a, b := scoredList[i], scoredList[j]
		if useDistance && a.kmBucket != b.kmBucket {
			return a.kmBucket < b.kmBucket
		}
		if a.feedback != b.feedback {
			return a.feedback > b.feedback
		}
		if a.c.Tour.Rating != b.c.Tour.Rating {
			return a.c.Tour.Rating > b.c.Tour.Rating
		}
		return a.c.Tour.ID < b.c.Tour.ID
	})

	ranked := make([]Candidate, len(scoredList))
	for i, s := range scoredList {
		ranked[i] = s.c
	}
	return ranked, nil
}

// likedCategorySet resolves the liked tour ids to their categories.
// The boost is category affinity, not a raw id match.
func (r *Ranker) likedCategorySet(ctx context.Context, liked []int64) (map[string]bool, error) {
	if len(liked) == 0 {
		return nil, nil
	}
	categories, err := r.store.LikedCategories(ctx, liked)
	if err != nil {
		return nil, fmt.Errorf("resolve liked categories: %w", err)
	}
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return set, nil
}
