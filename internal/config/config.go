// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

// Package config loads and validates Wayfinder configuration using
// Koanf v2 with layered sources: built-in defaults, an optional YAML
// config file, and environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Wayfinder server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Security  SecurityConfig  `koanf:"security"`
	API       APIConfig       `koanf:"api"`
	Weather   WeatherConfig   `koanf:"weather"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file, or ":memory:" for an
	// in-process ephemeral store.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count; 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
	// SeedDemoData loads the bundled demo tour catalog on startup
	// when the tours table is empty.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// AuthMode is "jwt" or "none".
	AuthMode        string        `koanf:"auth_mode"`
	JWTSecret       string        `koanf:"jwt_secret"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	AdminUsername   string        `koanf:"admin_username"`
	AdminPassword   string        `koanf:"admin_password"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// APIConfig holds pagination bounds for list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// WeatherConfig holds the OpenWeatherMap client settings.
type WeatherConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// OpenAIConfig holds the explanation generator settings. The client
// speaks the OpenAI chat-completions protocol, so any compatible
// endpoint works via BaseURL.
type OpenAIConfig struct {
	Enabled           bool          `koanf:"enabled"`
	BaseURL           string        `koanf:"base_url"`
	APIKey            string        `koanf:"api_key"`
	Model             string        `koanf:"model"`
	Timeout           time.Duration `koanf:"timeout"`
	MaxTokens         int           `koanf:"max_tokens"`
	Temperature       float64       `koanf:"temperature"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
}

// RecommendConfig holds the recommendation pipeline settings.
type RecommendConfig struct {
	// TierOneRadiusKm is the strict geo radius; tier 3 reuses it.
	TierOneRadiusKm float64 `koanf:"tier_one_radius_km"`
	// TierTwoRadiusKm is the relaxed geo radius of the second tier.
	TierTwoRadiusKm float64 `koanf:"tier_two_radius_km"`
	DefaultLimit    int     `koanf:"default_limit"`
	MaxLimit        int     `koanf:"max_limit"`
	// ExplainConcurrency bounds the explanation fan-out per request.
	ExplainConcurrency int           `koanf:"explain_concurrency"`
	ExplainTimeout     time.Duration `koanf:"explain_timeout"`
	// RequestTimeout is the overall deadline for one recommendation
	// request, explanations included.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// Validate checks the configuration for inconsistent or dangerous
// values. It is called by Load after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range [1, 65535]", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	switch c.Security.AuthMode {
	case "none":
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters in jwt mode")
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("security.admin_username and admin_password are required in jwt mode")
		}
	default:
		return fmt.Errorf("security.auth_mode %q is not supported (use jwt or none)", c.Security.AuthMode)
	}

	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size %d must be in [1, max_page_size=%d]",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}

	if c.Weather.Enabled && c.Weather.APIKey == "" {
		return fmt.Errorf("weather.api_key is required when weather is enabled")
	}
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required when openai is enabled")
	}

	r := c.Recommend
	if r.TierOneRadiusKm <= 0 || r.TierTwoRadiusKm <= 0 {
		return fmt.Errorf("recommend tier radii must be positive (got %g, %g)",
			r.TierOneRadiusKm, r.TierTwoRadiusKm)
	}
	if r.TierTwoRadiusKm < r.TierOneRadiusKm {
		return fmt.Errorf("recommend.tier_two_radius_km %g must not be smaller than tier_one_radius_km %g",
			r.TierTwoRadiusKm, r.TierOneRadiusKm)
	}
	if r.DefaultLimit < 1 || r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("recommend.default_limit %d must be in [1, max_limit=%d]",
			r.DefaultLimit, r.MaxLimit)
	}
	if r.ExplainConcurrency < 1 {
		return fmt.Errorf("recommend.explain_concurrency must be at least 1")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
