// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

// Package models defines the tour domain model and its enumerations.
// Types here are dependency-free so they can be shared by the database,
// recommendation, and API layers without import cycles.
package models

// TourType classifies where a tour takes place.
type TourType string

// Tour types.
const (
	TourTypeIndoor  TourType = "indoor"
	TourTypeOutdoor TourType = "outdoor"
	TourTypeBoth    TourType = "both"
)

// Valid reports whether t is a known tour type.
func (t TourType) Valid() bool {
	switch t {
	case TourTypeIndoor, TourTypeOutdoor, TourTypeBoth:
		return true
	}
	return false
}

// TimeOfDay is a coarse bucket of the local day.
type TimeOfDay string

// Time-of-day buckets.
const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// Valid reports whether t is a known time-of-day bucket.
func (t TimeOfDay) Valid() bool {
	switch t {
	case Morning, Afternoon, Evening, Night:
		return true
	}
	return false
}

// Season is a calendar season derived from the local month.
// Hemisphere is not modeled.
type Season string

// Seasons.
const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// PriceRange is a fixed USD price band.
type PriceRange string

// Price bands.
const (
	PriceLow     PriceRange = "0-50 USD"
	PriceMedium  PriceRange = "50-100 USD"
	PriceHigh    PriceRange = "100-200 USD"
	PricePremium PriceRange = "200-500 USD"
	PriceLuxury  PriceRange = "500+ USD"
)

// Valid reports whether p is a known price band.
func (p PriceRange) Valid() bool {
	switch p {
	case PriceLow, PriceMedium, PriceHigh, PricePremium, PriceLuxury:
		return true
	}
	return false
}

// PriceRanges lists all price bands in ascending order.
func PriceRanges() []PriceRange {
	return []PriceRange{PriceLow, PriceMedium, PriceHigh, PricePremium, PriceLuxury}
}

// Tour is a point-of-interest record as stored in the tour store.
// Name, Description, Subcategory and GroupTypes are opaque to the
// recommendation core and pass through responses unmodified.
type Tour struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Latitude      float64     `json:"lat"`
	Longitude     float64     `json:"lon"`
	Type          TourType    `json:"tour_type"`
	Category      string      `json:"category_name"`
	Subcategory   string      `json:"subcategory_name,omitempty"`
	PriceRange    PriceRange  `json:"pricing_range_usd"`
	Rating        float64     `json:"rating"`
	SuitableTimes []TimeOfDay `json:"time_of_day_trip_type"`
	Seasons       []string    `json:"season,omitempty"`
	GroupTypes    []string    `json:"group_type_suitability,omitempty"`
}

// SuitableAt reports whether the tour declares the given time-of-day
// bucket among its suitable times. A tour with no declared times is
// treated as suitable at any time.
func (t *Tour) SuitableAt(tod TimeOfDay) bool {
	if len(t.SuitableTimes) == 0 {
		return true
	}
	for _, st := range t.SuitableTimes {
		if st == tod {
			return true
		}
	}
	return false
}
