// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

// Package explain generates the one-sentence recommendation reasons.
// The Client speaks the OpenAI chat-completions protocol so any
// compatible endpoint works; Stub produces deterministic reasons when
// no generator is configured.
package explain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/wayfinder-app/wayfinder/internal/breaker"
	"github.com/wayfinder-app/wayfinder/internal/config"
	"github.com/wayfinder-app/wayfinder/internal/metrics"
	"github.com/wayfinder-app/wayfinder/internal/models"
	"github.com/wayfinder-app/wayfinder/internal/recommend"
)

var _ recommend.ReasonGenerator = (*Client)(nil)

// maxResponseSize bounds the completion response body at 1MB.
const maxResponseSize = 1 << 20

// Client requests reasons from an OpenAI-compatible chat endpoint.
// Calls are rate limited client-side and guarded by a circuit breaker.
type Client struct {
	cfg        *config.OpenAIConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[string]
}

// NewClient creates an explanation client from config.
func NewClient(cfg *config.OpenAIConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		cb:      breaker.New[string]("explain-api"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// buildPrompt summarizes the tour and context for the model. The
// output is constrained to one sentence addressed to the traveler.
func buildPrompt(tour *models.Tour, rc recommend.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tour: %s (category %s", tour.Name, tour.Category)
	if tour.Subcategory != "" {
		fmt.Fprintf(&b, "/%s", tour.Subcategory)
	}
	fmt.Fprintf(&b, ", %s, %s, rated %.1f).", tour.Type, tour.PriceRange, tour.Rating)
	fmt.Fprintf(&b, " It is %s in %s.", rc.TimeOfDay, rc.Season)
	if rc.Weather != nil {
		fmt.Fprintf(&b, " Current weather: %s, %.0f C.", rc.Weather.Condition, rc.Weather.TemperatureC)
	}
	b.WriteString(" In one short sentence, tell the traveler why this tour fits right now.")
	return b.String()
}

// Reason generates one explanation. The caller's context carries the
// per-tour timeout; a rate limiter wait that outlives it fails the
// call.
func (c *Client) Reason(ctx context.Context, tour *models.Tour, rc recommend.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	return c.cb.Execute(func() (string, error) {
		start := time.Now()
		reason, err := c.complete(ctx, buildPrompt(tour, rc))
		metrics.RecordExternalCall("openai", time.Since(start), err)
		return reason, err
	})
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You write short, friendly reasons for tour recommendations."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions",
		bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
