// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wayfinder-app/wayfinder/internal/metrics"
	"github.com/wayfinder-app/wayfinder/internal/models"
	"github.com/wayfinder-app/wayfinder/internal/recommend"
)

var _ recommend.TourStore = (*DB)(nil)

// QueryCandidates translates one retrieval tier's predicate set into
// SQL. Zero-valued query fields contribute no clause, so a geo-only
// query degrades to a plain radius scan and a coordinate-free query
// scans the whole catalog.
func (db *DB) QueryCandidates(ctx context.Context, q recommend.CandidateQuery) ([]recommend.Candidate, error) {
	var conds []string
	var args []any

	hasPoint := q.Lat != nil && q.Lon != nil

	selectList := `SELECT ` + tourColumns
	if hasPoint {
		selectList += `, ` + haversineExpr + ` AS distance_km`
		args = append(args, *q.Lat, *q.Lat, *q.Lon)
		if q.RadiusKm > 0 {
			conds = append(conds, "distance_km <= ?")
		}
	}
	// Geo args bind before the WHERE clause args, so the radius value
	// is appended here rather than with its condition above.
	if hasPoint && q.RadiusKm > 0 {
		args = append(args, q.RadiusKm)
	}

	if len(q.Types) > 0 {
		placeholders := make([]string, len(q.Types))
		for i, tt := range q.Types {
			placeholders[i] = "?"
			args = append(args, string(tt))
		}
		conds = append(conds, "tour_type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if q.PrefType != "" {
		conds = append(conds, "tour_type = ?")
		args = append(args, string(q.PrefType))
	}
	if q.TimeOfDay != "" {
		// Tours with no declared suitable times match every bucket.
		conds = append(conds, "(suitable_times = '' OR list_contains(string_split(suitable_times, ','), ?))")
		args = append(args, string(q.TimeOfDay))
	}
	if q.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, q.Category)
	}
	if q.PriceRange != "" {
		conds = append(conds, "price_range = ?")
		args = append(args, string(q.PriceRange))
	}
	if len(q.ExcludeIDs) > 0 {
		placeholders := make([]string, len(q.ExcludeIDs))
		for i, id := range q.ExcludeIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conds = append(conds, "id NOT IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := selectList + ` FROM tours`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id ASC`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("candidates", "tours", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []recommend.Candidate
	for rows.Next() {
		var t models.Tour
		var suitableTimes, seasons, groupTypes string
		var c recommend.Candidate

		if hasPoint {
			var distance float64
			err = rows.Scan(&t.ID, &t.Name, &t.Description, &t.Latitude, &t.Longitude,
				&t.Type, &t.Category, &t.Subcategory, &t.PriceRange, &t.Rating,
				&suitableTimes, &seasons, &groupTypes, &distance)
			if err == nil {
				c.DistanceKm = &distance
			}
		} else {
			err = rows.Scan(&t.ID, &t.Name, &t.Description, &t.Latitude, &t.Longitude,
				&t.Type, &t.Category, &t.Subcategory, &t.PriceRange, &t.Rating,
				&suitableTimes, &seasons, &groupTypes)
		}
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}

		for _, tod := range splitAndTrim(suitableTimes) {
			t.SuitableTimes = append(t.SuitableTimes, models.TimeOfDay(tod))
		}
		t.Seasons = splitAndTrim(seasons)
		t.GroupTypes = splitAndTrim(groupTypes)
		c.Tour = t
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

// LikedCategories returns the distinct categories of the given tour
// ids. Unknown ids are skipped silently.
func (db *DB) LikedCategories(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT category FROM tours WHERE id IN (`+strings.Join(placeholders, ", ")+`)`,
		args...)
	metrics.RecordDBQuery("liked_categories", "tours", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query liked categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan liked category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked categories: %w", err)
	}
	return categories, nil
}
