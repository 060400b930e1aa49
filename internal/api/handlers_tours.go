// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/wayfinder-app/wayfinder/internal/database"
	"github.com/wayfinder-app/wayfinder/internal/models"
	"github.com/wayfinder-app/wayfinder/internal/validation"
)

// tourPayload is the write shape for tour create and update.
type tourPayload struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=2000"`
	Latitude      float64  `json:"lat" validate:"latitude"`
	Longitude     float64  `json:"lon" validate:"longitude"`
	Type          string   `json:"tour_type" validate:"required,oneof=indoor outdoor both"`
	Category      string   `json:"category_name" validate:"required,max=100"`
	Subcategory   string   `json:"subcategory_name" validate:"max=100"`
	PriceRange    string   `json:"pricing_range_usd" validate:"required,oneof='0-50 USD' '50-100 USD' '100-200 USD' '200-500 USD' '500+ USD'"`
	Rating        float64  `json:"rating" validate:"min=0,max=5"`
	SuitableTimes []string `json:"time_of_day_trip_type" validate:"dive,oneof=morning afternoon evening night"`
	Seasons       []string `json:"season" validate:"dive,oneof=spring summer autumn winter"`
	GroupTypes    []string `json:"group_type_suitability"`
}

func (p *tourPayload) toTour() *models.Tour {
	t := &models.Tour{
		Name:        p.Name,
		Description: p.Description,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Type:        models.TourType(p.Type),
		Category:    p.Category,
		Subcategory: p.Subcategory,
		PriceRange:  models.PriceRange(p.PriceRange),
		Rating:      p.Rating,
		Seasons:     p.Seasons,
		GroupTypes:  p.GroupTypes,
	}
	for _, tod := range p.SuitableTimes {
		t.SuitableTimes = append(t.SuitableTimes, models.TimeOfDay(tod))
	}
	return t
}

func (h *Handlers) decodeTourPayload(rw *ResponseWriter, r *http.Request) (*tourPayload, bool) {
	var payload tourPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return nil, false
	}
	if verr := validation.ValidateStruct(&payload); verr != nil {
		rw.ValidationFailed(verr.Error(), verr.Details())
		return nil, false
	}
	return &payload, true
}

func tourIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid tour id %q", raw)
	}
	return id, nil
}

// CreateTour handles POST /api/v1/tours.
func (h *Handlers) CreateTour(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	payload, ok := h.decodeTourPayload(rw, r)
	if !ok {
		return
	}

	created, err := h.catalog.CreateTour(r.Context(), payload.toTour())
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Created(created)
}

// GetTour handles GET /api/v1/tours/{id}.
func (h *Handlers) GetTour(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := tourIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	tour, err := h.catalog.GetTour(r.Context(), id)
	if errors.Is(err, database.ErrTourNotFound) {
		rw.NotFound(fmt.Sprintf("tour %d not found", id))
		return
	}
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Success(tour)
}

// UpdateTour handles PUT /api/v1/tours/{id}.
func (h *Handlers) UpdateTour(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := tourIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	payload, ok := h.decodeTourPayload(rw, r)
	if !ok {
		return
	}

	tour := payload.toTour()
	tour.ID = id
	updated, err := h.catalog.UpdateTour(r.Context(), tour)
	if errors.Is(err, database.ErrTourNotFound) {
		rw.NotFound(fmt.Sprintf("tour %d not found", id))
		return
	}
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Success(updated)
}

// DeleteTour handles DELETE /api/v1/tours/{id}.
func (h *Handlers) DeleteTour(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := tourIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	err = h.catalog.DeleteTour(r.Context(), id)
	if errors.Is(err, database.ErrTourNotFound) {
		rw.NotFound(fmt.Sprintf("tour %d not found", id))
		return
	}
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.NoContent()
}

func (h *Handlers) pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	limit = h.cfg.API.DefaultPageSize

	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, fmt.Errorf("invalid limit %q", raw)
		}
		if limit > h.cfg.API.MaxPageSize {
			limit = h.cfg.API.MaxPageSize
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", raw)
		}
	}
	return limit, offset, nil
}

// ListTours handles GET /api/v1/tours.
func (h *Handlers) ListTours(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset, err := h.pageParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	q := r.URL.Query()
	filter := database.TourFilter{
		Category:   q.Get("category"),
		Type:       models.TourType(q.Get("tour_type")),
		PriceRange: models.PriceRange(q.Get("price_range")),
		Limit:      limit,
		Offset:     offset,
	}
	if filter.Type != "" && !filter.Type.Valid() {
		rw.BadRequest(fmt.Sprintf("invalid tour_type %q", filter.Type))
		return
	}
	if filter.PriceRange != "" && !filter.PriceRange.Valid() {
		rw.BadRequest(fmt.Sprintf("invalid price_range %q", filter.PriceRange))
		return
	}
	if raw := q.Get("min_rating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil || minRating < 0 || minRating > 5 {
			rw.BadRequest(fmt.Sprintf("invalid min_rating %q", raw))
			return
		}
		filter.MinRating = minRating
	}

	tours, total, err := h.catalog.ListTours(r.Context(), filter)
	if err != nil {
		rw.InternalError(err)
		return
	}
	if tours == nil {
		tours = []models.Tour{}
	}
	rw.SuccessWithPagination(tours, &PaginationMeta{
		Total:   total,
		Count:   len(tours),
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+len(tours) < total,
	})
}

// SearchTours handles GET /api/v1/tours/search?q=...
func (h *Handlers) SearchTours(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	query := r.URL.Query().Get("q")
	if query == "" {
		rw.BadRequest("query parameter q is required")
		return
	}
	limit, _, err := h.pageParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	tours, err := h.catalog.SearchTours(r.Context(), query, limit)
	if err != nil {
		rw.InternalError(err)
		return
	}
	if tours == nil {
		tours = []models.Tour{}
	}
	rw.Success(tours)
}

// SimilarTours handles GET /api/v1/tours/{id}/similar.
func (h *Handlers) SimilarTours(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := tourIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	limit, _, err := h.pageParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	tours, err := h.catalog.SimilarTours(r.Context(), id, limit)
	if errors.Is(err, database.ErrTourNotFound) {
		rw.NotFound(fmt.Sprintf("tour %d not found", id))
		return
	}
	if err != nil {
		rw.InternalError(err)
		return
	}
	if tours == nil {
		tours = []models.Tour{}
	}
	rw.Success(tours)
}

// NearbyTours handles GET /api/v1/tours/nearby?lat=..&lon=..&radius_km=..
func (h *Handlers) NearbyTours(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		rw.BadRequest("valid lat and lon are required")
		return
	}

	radiusKm := h.cfg.Recommend.TierOneRadiusKm
	if raw := q.Get("radius_km"); raw != "" {
		radiusKm, latErr = strconv.ParseFloat(raw, 64)
		if latErr != nil || radiusKm <= 0 || radiusKm > 500 {
			rw.BadRequest(fmt.Sprintf("invalid radius_km %q", raw))
			return
		}
	}
	limit, _, err := h.pageParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	tours, err := h.catalog.NearbyTours(r.Context(), lat, lon, radiusKm, limit)
	if err != nil {
		rw.InternalError(err)
		return
	}
	if tours == nil {
		tours = []database.NearbyTour{}
	}
	rw.Success(tours)
}

// Categories handles GET /api/v1/tours/categories.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		rw.InternalError(err)
		return
	}
	if categories == nil {
		categories = []database.CategoryCount{}
	}
	rw.Success(categories)
}

// Stats handles GET /api/v1/tours/stats.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Success(stats)
}

// RandomTour handles GET /api/v1/tours/random.
func (h *Handlers) RandomTour(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	tour, err := h.catalog.RandomTour(r.Context())
	if errors.Is(err, database.ErrEmptyCatalog) {
		rw.NotFound("tour catalog is empty")
		return
	}
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Success(tour)
}
