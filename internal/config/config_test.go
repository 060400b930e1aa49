// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}
	if cfg.Server.Port != 8460 {
		t.Errorf("default port = %d, want 8460", cfg.Server.Port)
	}
	if cfg.Recommend.TierOneRadiusKm != 20 {
		t.Errorf("tier one radius = %g, want 20", cfg.Recommend.TierOneRadiusKm)
	}
	if cfg.Recommend.TierTwoRadiusKm != 100 {
		t.Errorf("tier two radius = %g, want 100", cfg.Recommend.TierTwoRadiusKm)
	}
	if cfg.Security.AuthMode != "none" {
		t.Errorf("default auth mode = %q, want none", cfg.Security.AuthMode)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TIER_ONE_RADIUS_KM", "15")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Recommend.TierOneRadiusKm != 15 {
		t.Errorf("tier one radius = %g, want 15", cfg.Recommend.TierOneRadiusKm)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("cors origins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("cors origin[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadIgnoresUnmappedEnv(t *testing.T) {
	t.Setenv("SHELL_SESSION_NOISE", "true")

	if _, err := Load(); err != nil {
		t.Fatalf("unmapped env vars should be ignored: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			"port out of range",
			func(c *Config) { c.Server.Port = 0 },
			"server.port",
		},
		{
			"empty database path",
			func(c *Config) { c.Database.Path = "" },
			"database.path",
		},
		{
			"unknown auth mode",
			func(c *Config) { c.Security.AuthMode = "basic" },
			"auth_mode",
		},
		{
			"jwt mode without secret",
			func(c *Config) { c.Security.AuthMode = "jwt" },
			"jwt_secret",
		},
		{
			"jwt mode without admin credentials",
			func(c *Config) {
				c.Security.AuthMode = "jwt"
				c.Security.JWTSecret = strings.Repeat("s", 32)
			},
			"admin_username",
		},
		{
			"weather enabled without key",
			func(c *Config) { c.Weather.Enabled = true },
			"weather.api_key",
		},
		{
			"openai enabled without key",
			func(c *Config) { c.OpenAI.Enabled = true },
			"openai.api_key",
		},
		{
			"inverted tier radii",
			func(c *Config) {
				c.Recommend.TierOneRadiusKm = 100
				c.Recommend.TierTwoRadiusKm = 20
			},
			"tier_two_radius_km",
		},
		{
			"default limit above max",
			func(c *Config) { c.Recommend.DefaultLimit = 500 },
			"default_limit",
		},
		{
			"zero explain concurrency",
			func(c *Config) { c.Recommend.ExplainConcurrency = 0 },
			"explain_concurrency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	if got := envTransformFunc("WEATHER_API_KEY"); got != "weather.api_key" {
		t.Errorf("WEATHER_API_KEY mapped to %q", got)
	}
	if got := envTransformFunc("RANDOM_UNRELATED"); got != "" {
		t.Errorf("unmapped var should yield empty path, got %q", got)
	}
}
