// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package database

import "errors"

// ErrTourNotFound is returned when a tour id does not exist.
var ErrTourNotFound = errors.New("tour not found")

// ErrEmptyCatalog is returned by operations that need at least one
// tour, such as the random pick, when the table is empty.
var ErrEmptyCatalog = errors.New("tour catalog is empty")
