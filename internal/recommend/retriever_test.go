// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/wayfinder-app/wayfinder/internal/models"
)

// fakeStore replays canned results per QueryCandidates call and
// records every query it sees.
type fakeStore struct {
	queries         []CandidateQuery
	results         [][]Candidate
	err             error
	likedCategories []string
	likedErr        error
}

func (f *fakeStore) QueryCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	call := len(f.queries) - 1
	if call < len(f.results) {
		return f.results[call], nil
	}
	return nil, nil
}

func (f *fakeStore) LikedCategories(ctx context.Context, ids []int64) ([]string, error) {
	if f.likedErr != nil {
		return nil, f.likedErr
	}
	return f.likedCategories, nil
}

func candidate(id int64, category string) Candidate {
	return Candidate{Tour: models.Tour{ID: id, Category: category}}
}

func pointRequest() *Request {
	return &Request{Lat: floatPtr(48.2), Lon: floatPtr(16.37)}
}

func TestRetrieveFirstTierWins(t *testing.T) {
	store := &fakeStore{results: [][]Candidate{{candidate(1, "museum")}}}
	r := NewRetriever(store, 20, 100)

	got, tier, err := r.Retrieve(context.Background(), pointRequest(), Context{TimeOfDay: models.Morning})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if tier != 1 {
		t.Errorf("tier = %d, want 1", tier)
	}
	if len(got) != 1 || got[0].Tour.ID != 1 {
		t.Errorf("candidates = %+v, want tour 1", got)
	}
	if len(store.queries) != 1 {
		t.Errorf("store queried %d times, want 1 (later tiers must not run)", len(store.queries))
	}
	if store.queries[0].RadiusKm != 20 {
		t.Errorf("tier 1 radius = %g, want 20", store.queries[0].RadiusKm)
	}
}

func TestRetrieveFallsThroughToSecondTier(t *testing.T) {
	store := &fakeStore{results: [][]Candidate{nil, {candidate(2, "park")}}}
	r := NewRetriever(store, 20, 100)

	_, tier, err := r.Retrieve(context.Background(), pointRequest(), Context{})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if tier != 2 {
		t.Errorf("tier = %d, want 2", tier)
	}
	if store.queries[1].RadiusKm != 100 {
		t.Errorf("tier 2 radius = %g, want 100", store.queries[1].RadiusKm)
	}
	// Tier 2 keeps the full predicate set of tier 1.
	if len(store.queries[1].Types) == 0 {
		t.Error("tier 2 should keep the weather type predicate")
	}
}

func TestRetrieveTierThreeDropsAllButGeo(t *testing.T) {
	store := &fakeStore{results: [][]Candidate{nil, nil, {candidate(3, "zoo")}}}
	r := NewRetriever(store, 20, 100)

	req := pointRequest()
	req.Preferences = Preferences{TourType: models.TourTypeIndoor, Category: "museum", PriceRange: models.PriceLow}
	req.Feedback.Disliked = []int64{3}

	got, tier, err := r.Retrieve(context.Background(), req, Context{
		TimeOfDay: models.Evening,
		Weather:   &Weather{Condition: "Rain"},
	})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if tier != 3 {
		t.Fatalf("tier = %d, want 3", tier)
	}

	q := store.queries[2]
	if q.RadiusKm != 20 {
		t.Errorf("tier 3 radius = %g, want 20", q.RadiusKm)
	}
	if q.Lat == nil || q.Lon == nil {
		t.Error("tier 3 must keep the geo predicate")
	}
	if len(q.Types) != 0 || q.PrefType != "" || q.Category != "" || q.PriceRange != "" ||
		q.TimeOfDay != "" || len(q.ExcludeIDs) != 0 {
		t.Errorf("tier 3 must drop every non-geo predicate, got %+v", q)
	}
	// A disliked tour surfacing at tier 3 is allowed.
	if got[0].Tour.ID != 3 {
		t.Errorf("tier 3 candidate = %d, want 3", got[0].Tour.ID)
	}
}

func TestRetrieveAllTiersEmpty(t *testing.T) {
	store := &fakeStore{}
	r := NewRetriever(store, 20, 100)

	got, tier, err := r.Retrieve(context.Background(), pointRequest(), Context{})
	if err != nil {
		t.Fatalf("all-empty tiers must not error: %v", err)
	}
	if tier != 0 || len(got) != 0 {
		t.Errorf("got tier=%d candidates=%v, want 0 and empty", tier, got)
	}
	if len(store.queries) != 3 {
		t.Errorf("store queried %d times, want all 3 tiers", len(store.queries))
	}
}

func TestRetrieveWithoutCoordinatesOmitsGeo(t *testing.T) {
	store := &fakeStore{}
	r := NewRetriever(store, 20, 100)

	_, _, err := r.Retrieve(context.Background(), &Request{}, Context{TimeOfDay: models.Night})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	for i, q := range store.queries {
		if q.Lat != nil || q.Lon != nil || q.RadiusKm != 0 {
			t.Errorf("tier %d applied a geo predicate without coordinates: %+v", i+1, q)
		}
	}
}

func TestRetrieveStrictTierPredicates(t *testing.T) {
	store := &fakeStore{results: [][]Candidate{{candidate(1, "museum")}}}
	r := NewRetriever(store, 20, 100)

	req := pointRequest()
	req.Preferences = Preferences{Category: "museum", PriceRange: models.PriceMedium}
	req.Feedback.Disliked = []int64{7, 8}

	_, _, err := r.Retrieve(context.Background(), req, Context{
		TimeOfDay: models.Afternoon,
		Weather:   &Weather{Condition: "Rain"},
	})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}

	q := store.queries[0]
	if len(q.Types) != 1 || q.Types[0] != models.TourTypeIndoor {
		t.Errorf("rain should confine types to indoor, got %v", q.Types)
	}
	if q.TimeOfDay != models.Afternoon {
		t.Errorf("time of day predicate = %q, want afternoon", q.TimeOfDay)
	}
	if q.Category != "museum" || q.PriceRange != models.PriceMedium {
		t.Errorf("preference predicates missing: %+v", q)
	}
	if len(q.ExcludeIDs) != 2 {
		t.Errorf("exclusion ids = %v, want [7 8]", q.ExcludeIDs)
	}
}

func TestRetrieveStoreErrorPropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("db gone")}
	r := NewRetriever(store, 20, 100)

	_, _, err := r.Retrieve(context.Background(), pointRequest(), Context{})
	if err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestWeatherTypes(t *testing.T) {
	tests := []struct {
		name    string
		weather *Weather
		want    []models.TourType
	}{
		{"rain", &Weather{Condition: "Rain"}, []models.TourType{models.TourTypeIndoor}},
		{"clear", &Weather{Condition: "Clear"}, []models.TourType{models.TourTypeOutdoor, models.TourTypeBoth}},
		{"snow", &Weather{Condition: "Snow"}, []models.TourType{models.TourTypeOutdoor, models.TourTypeBoth}},
		{"unknown", nil, []models.TourType{models.TourTypeOutdoor, models.TourTypeBoth}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := weatherTypes(tt.weather)
			if len(got) != len(tt.want) {
				t.Fatalf("weatherTypes() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("weatherTypes()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
