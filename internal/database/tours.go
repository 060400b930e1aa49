// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wayfinder-app/wayfinder/internal/metrics"
	"github.com/wayfinder-app/wayfinder/internal/models"
)

// tourColumns is the canonical select list for tour rows. scanTour
// must stay in sync with it.
const tourColumns = `id, name, description, latitude, longitude, tour_type, category,
	subcategory, price_range, rating, suitable_times, seasons, group_types`

// haversineExpr computes the great-circle distance in kilometers
// between a tour row and a query point bound as (lat, lon, lat).
// 6371 is the mean Earth radius in km.
const haversineExpr = `2 * 6371 * asin(sqrt(
	pow(sin(radians(latitude - ?) / 2), 2) +
	cos(radians(?)) * cos(radians(latitude)) *
	pow(sin(radians(longitude - ?) / 2), 2)))`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTour(s rowScanner) (*models.Tour, error) {
	var t models.Tour
	var suitableTimes, seasons, groupTypes string

	err := s.Scan(&t.ID, &t.Name, &t.Description, &t.Latitude, &t.Longitude,
		&t.Type, &t.Category, &t.Subcategory, &t.PriceRange, &t.Rating,
		&suitableTimes, &seasons, &groupTypes)
	if err != nil {
		return nil, err
	}

	for _, tod := range splitAndTrim(suitableTimes) {
		t.SuitableTimes = append(t.SuitableTimes, models.TimeOfDay(tod))
	}
	t.Seasons = splitAndTrim(seasons)
	t.GroupTypes = splitAndTrim(groupTypes)
	return &t, nil
}

func timesToList(times []models.TimeOfDay) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = string(t)
	}
	return joinList(parts)
}

// CreateTour inserts a tour and returns it with the assigned id.
func (db *DB) CreateTour(ctx context.Context, t *models.Tour) (*models.Tour, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO tours (name, description, latitude, longitude, tour_type,
			category, subcategory, price_range, rating, suitable_times, seasons, group_types)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+tourColumns,
		t.Name, t.Description, t.Latitude, t.Longitude, string(t.Type),
		t.Category, t.Subcategory, string(t.PriceRange), t.Rating,
		timesToList(t.SuitableTimes), joinList(t.Seasons), joinList(t.GroupTypes))

	created, err := scanTour(row)
	metrics.RecordDBQuery("insert", "tours", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("insert tour: %w", err)
	}
	return created, nil
}

// GetTour fetches one tour by id.
func (db *DB) GetTour(ctx context.Context, id int64) (*models.Tour, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+tourColumns+` FROM tours WHERE id = ?`, id)

	t, err := scanTour(row)
	metrics.RecordDBQuery("select", "tours", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTourNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query tour %d: %w", id, err)
	}
	return t, nil
}

// UpdateTour replaces all mutable fields of a tour.
func (db *DB) UpdateTour(ctx context.Context, t *models.Tour) (*models.Tour, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		UPDATE tours SET name = ?, description = ?, latitude = ?, longitude = ?,
			tour_type = ?, category = ?, subcategory = ?, price_range = ?,
			rating = ?, suitable_times = ?, seasons = ?, group_types = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING `+tourColumns,
		t.Name, t.Description, t.Latitude, t.Longitude, string(t.Type),
		t.Category, t.Subcategory, string(t.PriceRange), t.Rating,
		timesToList(t.SuitableTimes), joinList(t.Seasons), joinList(t.GroupTypes),
		t.ID)

	updated, err := scanTour(row)
	metrics.RecordDBQuery("update", "tours", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTourNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update tour %d: %w", t.ID, err)
	}
	return updated, nil
}

// DeleteTour removes a tour by id.
func (db *DB) DeleteTour(ctx context.Context, id int64) error {
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `DELETE FROM tours WHERE id = ?`, id)
	metrics.RecordDBQuery("delete", "tours", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete tour %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tour %d: %w", id, err)
	}
	if affected == 0 {
		return ErrTourNotFound
	}
	return nil
}

// TourFilter narrows ListTours results. Zero values mean no filter.
type TourFilter struct {
	Category   string
	Type       models.TourType
	PriceRange models.PriceRange
	MinRating  float64
	Limit      int
	Offset     int
}

// ListTours returns a page of tours ordered by rating descending, then
// id ascending for a stable order, plus the total matching count.
func (db *DB) ListTours(ctx context.Context, f TourFilter) ([]models.Tour, int, error) {
	where, args := buildTourFilter(f)

	var total int
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM tours`+where, args...).Scan(&total)
	metrics.RecordDBQuery("count", "tours", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("count tours: %w", err)
	}

	query := `SELECT ` + tourColumns + ` FROM tours` + where +
		` ORDER BY rating DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	start = time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "tours", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("query tours: %w", err)
	}
	defer rows.Close()

	tours, err := collectTours(rows)
	if err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

func buildTourFilter(f TourFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Type != "" {
		conds = append(conds, "tour_type = ?")
		args = append(args, string(f.Type))
	}
	if f.PriceRange != "" {
		conds = append(conds, "price_range = ?")
		args = append(args, string(f.PriceRange))
	}
	if f.MinRating > 0 {
		conds = append(conds, "rating >= ?")
		args = append(args, f.MinRating)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func collectTours(rows *sql.Rows) ([]models.Tour, error) {
	var tours []models.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tour: %w", err)
		}
		tours = append(tours, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tours: %w", err)
	}
	return tours, nil
}

// SearchTours matches the query case-insensitively against tour name,
// description, category and subcategory.
func (db *DB) SearchTours(ctx context.Context, query string, limit int) ([]models.Tour, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+tourColumns+` FROM tours
		WHERE lower(name) LIKE ? OR lower(description) LIKE ?
			OR lower(category) LIKE ? OR lower(subcategory) LIKE ?
		ORDER BY rating DESC, id ASC
		LIMIT ?`,
		pattern, pattern, pattern, pattern, limit)
	metrics.RecordDBQuery("search", "tours", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("search tours: %w", err)
	}
	defer rows.Close()

	return collectTours(rows)
}

// SimilarTours ranks other tours by attribute overlap with the given
// tour. Shared category weighs 3, subcategory 2, tour type 2 and price
// band 1; ties break on rating, then id.
func (db *DB) SimilarTours(ctx context.Context, id int64, limit int) ([]models.Tour, error) {
	ref, err := db.GetTour(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+tourColumns+`,
			(CASE WHEN category = ? THEN 3 ELSE 0 END
			+ CASE WHEN subcategory != '' AND subcategory = ? THEN 2 ELSE 0 END
			+ CASE WHEN tour_type = ? THEN 2 ELSE 0 END
			+ CASE WHEN price_range = ? THEN 1 ELSE 0 END) AS similarity
		FROM tours
		WHERE id != ?
		ORDER BY similarity DESC, rating DESC, id ASC
		LIMIT ?`,
		ref.Category, ref.Subcategory, string(ref.Type), string(ref.PriceRange),
		id, limit)
	metrics.RecordDBQuery("similar", "tours", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query similar tours: %w", err)
	}
	defer rows.Close()

	var tours []models.Tour
	for rows.Next() {
		var t models.Tour
		var suitableTimes, seasons, groupTypes string
		var similarity int
		err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Latitude, &t.Longitude,
			&t.Type, &t.Category, &t.Subcategory, &t.PriceRange, &t.Rating,
			&suitableTimes, &seasons, &groupTypes, &similarity)
		if err != nil {
			return nil, fmt.Errorf("scan similar tour: %w", err)
		}
		for _, tod := range splitAndTrim(suitableTimes) {
			t.SuitableTimes = append(t.SuitableTimes, models.TimeOfDay(tod))
		}
		t.Seasons = splitAndTrim(seasons)
		t.GroupTypes = splitAndTrim(groupTypes)
		tours = append(tours, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar tours: %w", err)
	}
	return tours, nil
}

// NearbyTour pairs a tour with its distance from the query point.
type NearbyTour struct {
	models.Tour
	DistanceKm float64 `json:"distance_km"`
}

// NearbyTours returns tours within radiusKm of the point, closest
// first.
func (db *DB) NearbyTours(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]NearbyTour, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+tourColumns+`, `+haversineExpr+` AS distance_km
		FROM tours
		WHERE distance_km <= ?
		ORDER BY distance_km ASC, id ASC
		LIMIT ?`,
		lat, lat, lon, radiusKm, limit)
	metrics.RecordDBQuery("nearby", "tours", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query nearby tours: %w", err)
	}
	defer rows.Close()

	var tours []NearbyTour
	for rows.Next() {
		var nt NearbyTour
		var suitableTimes, seasons, groupTypes string
		err := rows.Scan(&nt.ID, &nt.Name, &nt.Description, &nt.Latitude, &nt.Longitude,
			&nt.Type, &nt.Category, &nt.Subcategory, &nt.PriceRange, &nt.Rating,
			&suitableTimes, &seasons, &groupTypes, &nt.DistanceKm)
		if err != nil {
			return nil, fmt.Errorf("scan nearby tour: %w", err)
		}
		for _, tod := range splitAndTrim(suitableTimes) {
			nt.SuitableTimes = append(nt.SuitableTimes, models.TimeOfDay(tod))
		}
		nt.Seasons = splitAndTrim(seasons)
		nt.GroupTypes = splitAndTrim(groupTypes)
		tours = append(tours, nt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearby tours: %w", err)
	}
	return tours, nil
}

// CategoryCount is one row of the category listing.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Categories lists distinct categories with their tour counts.
func (db *DB) Categories(ctx context.Context) ([]CategoryCount, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT category, count(*) AS n
		FROM tours
		GROUP BY category
		ORDER BY n DESC, category ASC`)
	metrics.RecordDBQuery("categories", "tours", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// CatalogStats summarizes the tour catalog.
type CatalogStats struct {
	TotalTours    int            `json:"total_tours"`
	AvgRating     float64        `json:"avg_rating"`
	Categories    int            `json:"categories"`
	ToursByType   map[string]int `json:"tours_by_type"`
	ToursByPrice  map[string]int `json:"tours_by_price"`
	HighestRating float64        `json:"highest_rating"`
}

// Stats aggregates catalog-wide statistics in one round trip per
// grouping.
func (db *DB) Stats(ctx context.Context) (*CatalogStats, error) {
	stats := &CatalogStats{
		ToursByType:  make(map[string]int),
		ToursByPrice: make(map[string]int),
	}

	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `
		SELECT count(*),
			coalesce(avg(rating), 0),
			count(DISTINCT category),
			coalesce(max(rating), 0)
		FROM tours`).
		Scan(&stats.TotalTours, &stats.AvgRating, &stats.Categories, &stats.HighestRating)
	metrics.RecordDBQuery("stats", "tours", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	if err := db.groupCount(ctx, "tour_type", stats.ToursByType); err != nil {
		return nil, err
	}
	if err := db.groupCount(ctx, "price_range", stats.ToursByPrice); err != nil {
		return nil, err
	}
	return stats, nil
}

func (db *DB) groupCount(ctx context.Context, column string, dest map[string]int) error {
	// column is a compile-time constant at every call site.
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+column+`, count(*) FROM tours GROUP BY `+column)
	if err != nil {
		return fmt.Errorf("query %s counts: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		dest[key] = n
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s counts: %w", column, err)
	}
	return nil
}

// RandomTour picks one tour uniformly at random.
func (db *DB) RandomTour(ctx context.Context) (*models.Tour, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+tourColumns+` FROM tours ORDER BY random() LIMIT 1`)

	t, err := scanTour(row)
	metrics.RecordDBQuery("random", "tours", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmptyCatalog
	}
	if err != nil {
		return nil, fmt.Errorf("query random tour: %w", err)
	}
	return t, nil
}
