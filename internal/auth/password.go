// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/wayfinder-app/wayfinder/internal/config"
)

// Verifier checks admin credentials. The password is hashed with
// bcrypt at startup so the plaintext never lives past construction.
type Verifier struct {
	username     string
	passwordHash []byte
}

// NewVerifier hashes the configured admin password.
func NewVerifier(cfg *config.SecurityConfig) (*Verifier, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return &Verifier{
		username:     cfg.AdminUsername,
		passwordHash: hash,
	}, nil
}

// Verify reports whether the credentials match the configured admin
// account. The username comparison is constant time.
func (v *Verifier) Verify(username, password string) bool {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	passwordOK := bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password)) == nil
	return usernameOK && passwordOK
}
