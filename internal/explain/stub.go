// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package explain

import (
	"context"
	"fmt"

	"github.com/wayfinder-app/wayfinder/internal/models"
	"github.com/wayfinder-app/wayfinder/internal/recommend"
)

var _ recommend.ReasonGenerator = (*Stub)(nil)

// Stub generates deterministic template reasons. It serves
// deployments without an explanation API key, keeping response shape
// identical to the generated path.
type Stub struct{}

// NewStub creates a stub generator.
func NewStub() *Stub {
	return &Stub{}
}

// Reason builds a reason from the tour attributes and context. It
// never fails.
func (s *Stub) Reason(_ context.Context, tour *models.Tour, rc recommend.Context) (string, error) {
	if rc.Weather != nil && rc.Weather.Condition == "Rain" && tour.Type == models.TourTypeIndoor {
		return fmt.Sprintf("%s keeps you dry during the rain and suits a %s visit.",
			tour.Name, rc.TimeOfDay), nil
	}
	return fmt.Sprintf("%s is a highly rated %s experience, a great fit for this %s %s.",
		tour.Name, tour.Category, rc.Season, rc.TimeOfDay), nil
}
