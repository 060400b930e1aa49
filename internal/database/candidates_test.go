// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package database

import (
	"context"
	"testing"

	"github.com/wayfinder-app/wayfinder/internal/models"
	"github.com/wayfinder-app/wayfinder/internal/recommend"
)

func seedCandidateFixtures(t *testing.T, db *DB) map[string]int64 {
	t.Helper()
	ctx := context.Background()
	ids := make(map[string]int64)

	fixtures := []*models.Tour{
		{
			Name: "indoor-near", Latitude: 48.21, Longitude: 16.37,
			Type: models.TourTypeIndoor, Category: "museum", PriceRange: models.PriceLow,
			Rating: 4.5, SuitableTimes: []models.TimeOfDay{models.Morning},
		},
		{
			Name: "outdoor-near", Latitude: 48.22, Longitude: 16.38,
			Type: models.TourTypeOutdoor, Category: "park", PriceRange: models.PriceLow,
			Rating: 4.0, SuitableTimes: []models.TimeOfDay{models.Morning, models.Afternoon},
		},
		{
			Name: "outdoor-mid", Latitude: 48.70, Longitude: 16.60, // ~57km out
			Type: models.TourTypeOutdoor, Category: "park", PriceRange: models.PriceMedium,
			Rating: 3.5, SuitableTimes: []models.TimeOfDay{models.Morning},
		},
		{
			Name: "anytime-near", Latitude: 48.20, Longitude: 16.36,
			Type: models.TourTypeBoth, Category: "food", PriceRange: models.PriceLow,
			Rating: 4.2, // no declared suitable times
		},
	}
	for _, f := range fixtures {
		created, err := db.CreateTour(ctx, f)
		if err != nil {
			t.Fatalf("CreateTour(%s) failed: %v", f.Name, err)
		}
		ids[f.Name] = created.ID
	}
	return ids
}

func candidateNames(candidates []recommend.Candidate) map[string]bool {
	names := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		names[c.Tour.Name] = true
	}
	return names
}

func TestQueryCandidatesGeoRadius(t *testing.T) {
	db := newTestDB(t)
	seedCandidateFixtures(t, db)

	lat, lon := 48.2082, 16.3738
	got, err := db.QueryCandidates(context.Background(), recommend.CandidateQuery{
		Lat: &lat, Lon: &lon, RadiusKm: 20,
	})
	if err != nil {
		t.Fatalf("QueryCandidates() failed: %v", err)
	}

	names := candidateNames(got)
	if names["outdoor-mid"] {
		t.Error("tour outside radius returned")
	}
	if len(got) != 3 {
		t.Errorf("candidates = %d, want 3", len(got))
	}
	for _, c := range got {
		if c.DistanceKm == nil {
			t.Fatalf("candidate %s missing distance", c.Tour.Name)
		}
		if *c.DistanceKm > 20 {
			t.Errorf("candidate %s distance %g exceeds radius", c.Tour.Name, *c.DistanceKm)
		}
	}
}

func TestQueryCandidatesWiderRadius(t *testing.T) {
	db := newTestDB(t)
	seedCandidateFixtures(t, db)

	lat, lon := 48.2082, 16.3738
	got, err := db.QueryCandidates(context.Background(), recommend.CandidateQuery{
		Lat: &lat, Lon: &lon, RadiusKm: 100,
	})
	if err != nil {
		t.Fatalf("QueryCandidates() failed: %v", err)
	}
	if !candidateNames(got)["outdoor-mid"] {
		t.Error("mid-distance tour missing at 100km radius")
	}
}

func TestQueryCandidatesTypePredicate(t *testing.T) {
	db := newTestDB(t)
	seedCandidateFixtures(t, db)

	got, err := db.QueryCandidates(context.Background(), recommend.CandidateQuery{
		Types: []models.TourType{models.TourTypeOutdoor, models.TourTypeBoth},
	})
	if err != nil {
		t.Fatalf("QueryCandidates() failed: %v", err)
	}
	names := candidateNames(got)
	if names["indoor-near"] {
		t.Error("indoor tour returned despite outdoor/both constraint")
	}
	if !names["outdoor-near"] || !names["anytime-near"] {
		t.Errorf("candidates = %v", names)
	}
}

func TestQueryCandidatesTimeOfDay(t *testing.T) {
	db := newTestDB(t)
	seedCandidateFixtures(t, db)

	got, err := db.QueryCandidates(context.Background(), recommend.CandidateQuery{
		TimeOfDay: models.Afternoon,
	})
	if err != nil {
		t.Fatalf("QueryCandidates() failed: %v", err)
	}
	names := candidateNames(got)
	if names["indoor-near"] || names["outdoor-mid"] {
		t.Errorf("morning-only tours matched afternoon: %v", names)
	}
	// Tours with no declared times match every bucket.
	if !names["anytime-near"] {
		t.Error("tour without declared times should match any time of day")
	}
	if !names["outdoor-near"] {
		t.Error("afternoon tour missing")
	}
}

func TestQueryCandidatesPreferenceAndExclusion(t *testing.T) {
	db := newTestDB(t)
	ids := seedCandidateFixtures(t, db)

	got, err := db.QueryCandidates(context.Background(), recommend.CandidateQuery{
		Category:   "park",
		PriceRange: models.PriceLow,
	})
	if err != nil {
		t.Fatalf("QueryCandidates() failed: %v", err)
	}
	if len(got) != 1 || got[0].Tour.Name != "outdoor-near" {
		t.Errorf("preference query = %v", candidateNames(got))
	}

	got, err = db.QueryCandidates(context.Background(), recommend.CandidateQuery{
		ExcludeIDs: []int64{ids["outdoor-near"], ids["anytime-near"]},
	})
	if err != nil {
		t.Fatalf("QueryCandidates() failed: %v", err)
	}
	names := candidateNames(got)
	if names["outdoor-near"] || names["anytime-near"] {
		t.Errorf("excluded ids returned: %v", names)
	}
	if len(got) != 2 {
		t.Errorf("candidates = %d, want 2", len(got))
	}
}

func TestQueryCandidatesWithoutCoordinates(t *testing.T) {
	db := newTestDB(t)
	seedCandidateFixtures(t, db)

	got, err := db.QueryCandidates(context.Background(), recommend.CandidateQuery{})
	if err != nil {
		t.Fatalf("QueryCandidates() failed: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("coordinate-free query = %d candidates, want all 4", len(got))
	}
	for _, c := range got {
		if c.DistanceKm != nil {
			t.Errorf("candidate %s has a distance without coordinates", c.Tour.Name)
		}
	}
}

func TestLikedCategories(t *testing.T) {
	db := newTestDB(t)
	ids := seedCandidateFixtures(t, db)

	got, err := db.LikedCategories(context.Background(),
		[]int64{ids["indoor-near"], ids["outdoor-near"], 99999})
	if err != nil {
		t.Fatalf("LikedCategories() failed: %v", err)
	}
	set := make(map[string]bool, len(got))
	for _, c := range got {
		set[c] = true
	}
	if !set["museum"] || !set["park"] || len(got) != 2 {
		t.Errorf("liked categories = %v, want museum and park", got)
	}

	empty, err := db.LikedCategories(context.Background(), nil)
	if err != nil || empty != nil {
		t.Errorf("empty ids: got %v, %v", empty, err)
	}
}
