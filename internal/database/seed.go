// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package database

import (
	"context"
	"fmt"

	"github.com/wayfinder-app/wayfinder/internal/logging"
	"github.com/wayfinder-app/wayfinder/internal/models"
)

// demoTours is a small catalog around Vienna used for local
// development and demos.
func demoTours() []models.Tour {
	return []models.Tour{
		{
			Name: "Art History Museum Tour", Description: "Guided walk through old master paintings",
			Latitude: 48.2038, Longitude: 16.3617, Type: models.TourTypeIndoor,
			Category: "museum", Subcategory: "art", PriceRange: models.PriceLow, Rating: 4.7,
			SuitableTimes: []models.TimeOfDay{models.Morning, models.Afternoon},
			Seasons:       []string{"spring", "summer", "autumn", "winter"},
			GroupTypes:    []string{"family", "couple", "solo"},
		},
		{
			Name: "Schoenbrunn Gardens Walk", Description: "Imperial gardens and the Gloriette",
			Latitude: 48.1845, Longitude: 16.3122, Type: models.TourTypeOutdoor,
			Category: "park", Subcategory: "garden", PriceRange: models.PriceLow, Rating: 4.8,
			SuitableTimes: []models.TimeOfDay{models.Morning, models.Afternoon, models.Evening},
			Seasons:       []string{"spring", "summer", "autumn"},
			GroupTypes:    []string{"family", "couple"},
		},
		{
			Name: "Danube Evening Cruise", Description: "River cruise with city skyline views",
			Latitude: 48.2272, Longitude: 16.4135, Type: models.TourTypeBoth,
			Category: "cruise", Subcategory: "river", PriceRange: models.PriceMedium, Rating: 4.4,
			SuitableTimes: []models.TimeOfDay{models.Evening, models.Night},
			Seasons:       []string{"spring", "summer"},
			GroupTypes:    []string{"couple", "group"},
		},
		{
			Name: "Historic Coffee House Crawl", Description: "Three classic cafes with tastings",
			Latitude: 48.2089, Longitude: 16.3701, Type: models.TourTypeIndoor,
			Category: "food", Subcategory: "cafe", PriceRange: models.PriceMedium, Rating: 4.6,
			SuitableTimes: []models.TimeOfDay{models.Morning, models.Afternoon},
			Seasons:       []string{"spring", "summer", "autumn", "winter"},
			GroupTypes:    []string{"solo", "couple", "group"},
		},
		{
			Name: "Vienna Woods Hike", Description: "Forest trail to the Kahlenberg lookout",
			Latitude: 48.2785, Longitude: 16.3332, Type: models.TourTypeOutdoor,
			Category: "hiking", Subcategory: "forest", PriceRange: models.PriceLow, Rating: 4.5,
			SuitableTimes: []models.TimeOfDay{models.Morning, models.Afternoon},
			Seasons:       []string{"spring", "summer", "autumn"},
			GroupTypes:    []string{"solo", "group"},
		},
		{
			Name: "Opera Backstage Tour", Description: "Behind the scenes of the state opera",
			Latitude: 48.2025, Longitude: 16.3689, Type: models.TourTypeIndoor,
			Category: "culture", Subcategory: "music", PriceRange: models.PriceHigh, Rating: 4.9,
			SuitableTimes: []models.TimeOfDay{models.Afternoon, models.Evening},
			Seasons:       []string{"spring", "summer", "autumn", "winter"},
			GroupTypes:    []string{"couple", "solo"},
		},
		{
			Name: "Night Market Food Walk", Description: "Street food stalls after dark",
			Latitude: 48.1985, Longitude: 16.3655, Type: models.TourTypeBoth,
			Category: "food", Subcategory: "street-food", PriceRange: models.PriceLow, Rating: 4.3,
			SuitableTimes: []models.TimeOfDay{models.Evening, models.Night},
			Seasons:       []string{"summer", "autumn"},
			GroupTypes:    []string{"group", "couple"},
		},
		{
			Name: "Wachau Valley Wine Day Trip", Description: "Vineyards and river villages",
			Latitude: 48.3642, Longitude: 15.4329, Type: models.TourTypeOutdoor,
			Category: "wine", Subcategory: "vineyard", PriceRange: models.PricePremium, Rating: 4.8,
			SuitableTimes: []models.TimeOfDay{models.Morning, models.Afternoon},
			Seasons:       []string{"spring", "summer", "autumn"},
			GroupTypes:    []string{"couple", "group"},
		},
		{
			Name: "Imperial Palace Audio Tour", Description: "Hofburg apartments and treasury",
			Latitude: 48.2066, Longitude: 16.3653, Type: models.TourTypeIndoor,
			Category: "museum", Subcategory: "history", PriceRange: models.PriceMedium, Rating: 4.5,
			SuitableTimes: []models.TimeOfDay{models.Morning, models.Afternoon, models.Evening},
			Seasons:       []string{"spring", "summer", "autumn", "winter"},
			GroupTypes:    []string{"family", "solo"},
		},
		{
			Name: "Prater Giant Ferris Wheel", Description: "Landmark wheel and amusement park",
			Latitude: 48.2167, Longitude: 16.3958, Type: models.TourTypeBoth,
			Category: "amusement", Subcategory: "landmark", PriceRange: models.PriceLow, Rating: 4.2,
			SuitableTimes: []models.TimeOfDay{models.Afternoon, models.Evening, models.Night},
			Seasons:       []string{"spring", "summer", "autumn"},
			GroupTypes:    []string{"family", "group"},
		},
	}
}

// seedIfEmpty loads the demo catalog when the tours table is empty.
func (db *DB) seedIfEmpty(ctx context.Context) error {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM tours`).Scan(&count); err != nil {
		return fmt.Errorf("count tours: %w", err)
	}
	if count > 0 {
		return nil
	}

	for i := range demoTours() {
		tour := demoTours()[i]
		if _, err := db.CreateTour(ctx, &tour); err != nil {
			return err
		}
	}
	logging.Info().Int("tours", len(demoTours())).Msg("Seeded demo tour catalog")
	return nil
}
