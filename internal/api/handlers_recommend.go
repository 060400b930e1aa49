// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/wayfinder-app/wayfinder/internal/models"
	"github.com/wayfinder-app/wayfinder/internal/recommend"
	"github.com/wayfinder-app/wayfinder/internal/validation"
)

// smartParams is the validated recommendation request surface, shared
// by the GET query form and the POST JSON form.
type smartParams struct {
	Lat *float64 `json:"lat" validate:"omitempty,latitude"`
	Lon *float64 `json:"lon" validate:"omitempty,longitude"`
	// LocalDatetime overrides "now" for context derivation, RFC 3339.
	LocalDatetime string  `json:"local_datetime"`
	TourType      string  `json:"tour_type" validate:"omitempty,oneof=indoor outdoor both"`
	Category      string  `json:"category"`
	PriceRange    string  `json:"price_range" validate:"omitempty,oneof='0-50 USD' '50-100 USD' '100-200 USD' '200-500 USD' '500+ USD'"`
	LikedTours    []int64 `json:"liked_tours"`
	DislikedTours []int64 `json:"disliked_tours"`
	// Limit nil means the configured default; an explicit 0 asks for
	// an empty result list.
	Limit *int `json:"limit" validate:"omitempty,min=0,max=50"`
}

func (p *smartParams) toRequest() *recommend.Request {
	return &recommend.Request{
		Lat: p.Lat,
		Lon: p.Lon,
		Preferences: recommend.Preferences{
			TourType:   models.TourType(p.TourType),
			Category:   p.Category,
			PriceRange: models.PriceRange(p.PriceRange),
		},
		Feedback: recommend.Feedback{
			Liked:    p.LikedTours,
			Disliked: p.DislikedTours,
		},
		Limit: p.Limit,
	}
}

// validateSmartParams applies struct validation plus the pairing rule
// for coordinates, which validator tags cannot express across
// pointer fields.
func validateSmartParams(p *smartParams) error {
	if (p.Lat == nil) != (p.Lon == nil) {
		return fmt.Errorf("lat and lon must be supplied together")
	}
	if verr := validation.ValidateStruct(p); verr != nil {
		return verr
	}
	return nil
}

func parseIDList(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tour id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseSmartQuery(r *http.Request) (*smartParams, error) {
	q := r.URL.Query()
	p := &smartParams{
		LocalDatetime: q.Get("local_datetime"),
		TourType:      q.Get("tour_type"),
		Category:      q.Get("category"),
		PriceRange:    q.Get("price_range"),
	}

	for _, coord := range []struct {
		name string
		dest **float64
	}{
		{"lat", &p.Lat},
		{"lon", &p.Lon},
	} {
		raw := q.Get(coord.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", coord.name, raw)
		}
		*coord.dest = &v
	}

	var err error
	if p.LikedTours, err = parseIDList(q.Get("liked_tours")); err != nil {
		return nil, err
	}
	if p.DislikedTours, err = parseIDList(q.Get("disliked_tours")); err != nil {
		return nil, err
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid limit %q", raw)
		}
		p.Limit = &limit
	}
	return p, nil
}

// SmartRecommendations handles GET /api/v1/recommendations/smart.
func (h *Handlers) SmartRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	params, err := parseSmartQuery(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	h.recommend(rw, r, params)
}

// smartBody is the POST JSON shape. Unlike the flat query form,
// preferences and feedback arrive as nested objects.
type smartBody struct {
	Lat           *float64         `json:"lat"`
	Lon           *float64         `json:"lon"`
	LocalDatetime string           `json:"local_datetime"`
	Preferences   smartPreferences `json:"preferences"`
	Feedback      smartFeedback    `json:"feedback"`
	Limit         *int             `json:"limit"`
}

type smartPreferences struct {
	TourType   string `json:"tour_type"`
	Category   string `json:"category"`
	PriceRange string `json:"price_range"`
}

type smartFeedback struct {
	LikedTours    []int64 `json:"liked_tours"`
	DislikedTours []int64 `json:"disliked_tours"`
}

// toParams flattens the body onto the shared validated surface.
func (b *smartBody) toParams() *smartParams {
	return &smartParams{
		Lat:           b.Lat,
		Lon:           b.Lon,
		LocalDatetime: b.LocalDatetime,
		TourType:      b.Preferences.TourType,
		Category:      b.Preferences.Category,
		PriceRange:    b.Preferences.PriceRange,
		LikedTours:    b.Feedback.LikedTours,
		DislikedTours: b.Feedback.DislikedTours,
		Limit:         b.Limit,
	}
}

// SmartRecommendationsPost handles POST /api/v1/recommendations/smart
// with the same parameters as a JSON body, preferences and feedback
// nested.
func (h *Handlers) SmartRecommendationsPost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body smartBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return
	}
	h.recommend(rw, r, body.toParams())
}

func (h *Handlers) recommend(rw *ResponseWriter, r *http.Request, params *smartParams) {
	if err := validateSmartParams(params); err != nil {
		var verr *validation.RequestValidationError
		if ok := asValidationError(err, &verr); ok {
			rw.ValidationFailed(verr.Error(), verr.Details())
			return
		}
		rw.BadRequest(err.Error())
		return
	}

	req := params.toRequest()
	if params.LocalDatetime != "" {
		ts, err := time.Parse(time.RFC3339, params.LocalDatetime)
		if err != nil {
			rw.BadRequest(fmt.Sprintf("invalid local_datetime %q: must be RFC 3339", params.LocalDatetime))
			return
		}
		req.Timestamp = ts
	}

	resp, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		rw.InternalError(err)
		return
	}

	// The tours key is always a list, never null.
	if resp.Tours == nil {
		resp.Tours = []recommend.RecommendedTour{}
	}
	rw.Success(resp)
}
