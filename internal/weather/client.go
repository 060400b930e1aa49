// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

// Package weather implements the OpenWeatherMap current-conditions
// client used for context derivation. Lookups run behind a circuit
// breaker; the recommendation pipeline treats any failure as "weather
// unknown" and continues.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/wayfinder-app/wayfinder/internal/breaker"
	"github.com/wayfinder-app/wayfinder/internal/config"
	"github.com/wayfinder-app/wayfinder/internal/metrics"
	"github.com/wayfinder-app/wayfinder/internal/recommend"
)

var _ recommend.WeatherService = (*Client)(nil)

// maxResponseSize bounds the weather response body at 1MB.
const maxResponseSize = 1 << 20

// Client calls the OpenWeatherMap current weather endpoint.
type Client struct {
	cfg        *config.WeatherConfig
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*recommend.Weather]
}

// NewClient creates a weather client from config.
func NewClient(cfg *config.WeatherConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cb: breaker.New[*recommend.Weather]("weather-api"),
	}
}

// owmResponse is the subset of the OpenWeatherMap payload we read.
type owmResponse struct {
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Current fetches conditions for a coordinate. The returned condition
// is OpenWeatherMap's main group (Rain, Clear, Clouds, Snow, ...) and
// the temperature is Celsius.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*recommend.Weather, error) {
	return c.cb.Execute(func() (*recommend.Weather, error) {
		start := time.Now()
		w, err := c.fetch(ctx, lat, lon)
		metrics.RecordExternalCall("weather", time.Since(start), err)
		return w, err
	})
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (*recommend.Weather, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.cfg.APIKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}

	var parsed owmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	if len(parsed.Weather) == 0 {
		return nil, fmt.Errorf("weather response has no conditions")
	}

	return &recommend.Weather{
		Condition:    parsed.Weather[0].Main,
		TemperatureC: parsed.Main.Temp,
	}, nil
}
