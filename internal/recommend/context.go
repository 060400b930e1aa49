// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package recommend

import (
	"context"
	"time"

	"github.com/wayfinder-app/wayfinder/internal/logging"
	"github.com/wayfinder-app/wayfinder/internal/models"
)

// TimeOfDayFor buckets the local hour: morning [5,11], afternoon
// [12,16], evening [17,20], night [21,4] wrapping past midnight.
func TimeOfDayFor(t time.Time) models.TimeOfDay {
	switch h := t.Hour(); {
	case h >= 5 && h <= 11:
		return models.Morning
	case h >= 12 && h <= 16:
		return models.Afternoon
	case h >= 17 && h <= 20:
		return models.Evening
	default:
		return models.Night
	}
}

// SeasonFor maps the local month onto a fixed calendar season.
// Hemisphere is not modeled.
func SeasonFor(t time.Time) models.Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return models.Winter
	case time.March, time.April, time.May:
		return models.Spring
	case time.June, time.July, time.August:
		return models.Summer
	default:
		return models.Autumn
	}
}

// ContextDeriver builds the request context. The weather service is
// optional; when nil the context simply carries no weather.
type ContextDeriver struct {
	weather WeatherService
	now     func() time.Time
}

// NewContextDeriver creates a deriver. weather may be nil.
func NewContextDeriver(weather WeatherService) *ContextDeriver {
	return &ContextDeriver{weather: weather, now: time.Now}
}

// Derive computes the context for a request. The weather lookup runs
// concurrently with the static time derivation but the result is
// joined before returning, so callers see a complete context. Weather
// failure degrades to a context without weather, never an error.
func (d *ContextDeriver) Derive(ctx context.Context, req *Request) Context {
	var weatherCh chan *Weather
	if d.weather != nil && req.HasPoint() {
		weatherCh = make(chan *Weather, 1)
		lat, lon := *req.Lat, *req.Lon
		go func() {
			w, err := d.weather.Current(ctx, lat, lon)
			if err != nil {
				logging.Warn().Err(err).Msg("Weather lookup failed, continuing without weather")
				weatherCh <- nil
				return
			}
			weatherCh <- w
		}()
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = d.now()
	}

	rc := Context{
		TimeOfDay: TimeOfDayFor(ts),
		Season:    SeasonFor(ts),
	}

	if weatherCh != nil {
		rc.Weather = <-weatherCh
	}
	return rc
}
