// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package recommend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wayfinder-app/wayfinder/internal/models"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reasons map[int64]string
	errIDs  map[int64]bool
	delay   time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeGenerator) Reason(ctx context.Context, tour *models.Tour, rc Context) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errIDs[tour.ID] {
		return "", errors.New("generation failed")
	}
	return f.reasons[tour.ID], nil
}

func recommended(ids ...int64) []RecommendedTour {
	out := make([]RecommendedTour, len(ids))
	for i, id := range ids {
		out[i] = RecommendedTour{Tour: models.Tour{ID: id, Name: "Tour"}}
	}
	return out
}

func TestExplainAttachesReasons(t *testing.T) {
	gen := &fakeGenerator{reasons: map[int64]string{1: "because rain", 2: "because morning"}}
	e := NewExplainer(gen, 4, time.Second)

	got := e.Explain(context.Background(), recommended(1, 2), Context{TimeOfDay: models.Morning})
	if got[0].Reason != "because rain" || got[1].Reason != "because morning" {
		t.Errorf("reasons = %q, %q", got[0].Reason, got[1].Reason)
	}
}

func TestExplainPerTourFallback(t *testing.T) {
	gen := &fakeGenerator{
		reasons: map[int64]string{1: "generated"},
		errIDs:  map[int64]bool{2: true},
	}
	e := NewExplainer(gen, 4, time.Second)

	got := e.Explain(context.Background(), recommended(1, 2), Context{TimeOfDay: models.Evening})
	if got[0].Reason != "generated" {
		t.Errorf("healthy tour reason = %q, want generated", got[0].Reason)
	}
	if !strings.Contains(got[1].Reason, "evening") {
		t.Errorf("fallback reason %q should mention the time of day", got[1].Reason)
	}
}

func TestExplainNilGeneratorUsesFallback(t *testing.T) {
	e := NewExplainer(nil, 4, time.Second)

	got := e.Explain(context.Background(), recommended(1), Context{TimeOfDay: models.Night})
	if !strings.Contains(got[0].Reason, "night") {
		t.Errorf("fallback reason = %q", got[0].Reason)
	}
}

func TestExplainBoundedConcurrency(t *testing.T) {
	gen := &fakeGenerator{delay: 20 * time.Millisecond, reasons: map[int64]string{}}
	e := NewExplainer(gen, 2, time.Second)

	e.Explain(context.Background(), recommended(1, 2, 3, 4, 5, 6), Context{})
	if max := gen.maxInFlight.Load(); max > 2 {
		t.Errorf("observed %d concurrent generator calls, limit is 2", max)
	}
}

func TestExplainTimeoutFallsBack(t *testing.T) {
	gen := &fakeGenerator{delay: 200 * time.Millisecond, reasons: map[int64]string{1: "slow"}}
	e := NewExplainer(gen, 1, 10*time.Millisecond)

	got := e.Explain(context.Background(), recommended(1), Context{TimeOfDay: models.Morning})
	if got[0].Reason == "slow" || got[0].Reason == "" {
		t.Errorf("timed-out call should fall back, got %q", got[0].Reason)
	}
}
