// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wayfinder/config.yaml",
	"/etc/wayfinder/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8460,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:         "/data/wayfinder.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			SeedDemoData: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Security: SecurityConfig{
			AuthMode:        "none",
			JWTSecret:       "",
			SessionTimeout:  24 * time.Hour,
			AdminUsername:   "",
			AdminPassword:   "",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Weather: WeatherConfig{
			Enabled: false,
			BaseURL: "https://api.openweathermap.org/data/2.5/weather",
			APIKey:  "",
			Timeout: 5 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Enabled:           false,
			BaseURL:           "https://api.openai.com/v1",
			APIKey:            "",
			Model:             "gpt-4o-mini",
			Timeout:           10 * time.Second,
			MaxTokens:         100,
			Temperature:       0.7,
			RequestsPerSecond: 5,
		},
		Recommend: RecommendConfig{
			TierOneRadiusKm:    20,
			TierTwoRadiusKm:    100,
			DefaultLimit:       10,
			MaxLimit:           50,
			ExplainConcurrency: 4,
			ExplainTimeout:     8 * time.Second,
			RequestTimeout:     20 * time.Second,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps flat environment variable names (lowercased) to
// koanf paths. Env vars not listed here are ignored so that unrelated
// environment noise cannot leak into the config.
var envMappings = map[string]string{
	"host":        "server.host",
	"port":        "server.port",
	"environment": "server.environment",

	"database_path":      "database.path",
	"database_max_memory": "database.max_memory",
	"database_threads":   "database.threads",
	"seed_demo_data":     "database.seed_demo_data",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"auth_mode":         "security.auth_mode",
	"jwt_secret":        "security.jwt_secret",
	"session_timeout":   "security.session_timeout",
	"admin_username":    "security.admin_username",
	"admin_password":    "security.admin_password",
	"rate_limit_reqs":   "security.rate_limit_reqs",
	"rate_limit_window": "security.rate_limit_window",
	"cors_origins":      "security.cors_origins",

	"weather_enabled":  "weather.enabled",
	"weather_base_url": "weather.base_url",
	"weather_api_key":  "weather.api_key",
	"weather_timeout":  "weather.timeout",

	"openai_enabled":             "openai.enabled",
	"openai_base_url":            "openai.base_url",
	"openai_api_key":             "openai.api_key",
	"openai_model":               "openai.model",
	"openai_timeout":             "openai.timeout",
	"openai_max_tokens":          "openai.max_tokens",
	"openai_temperature":         "openai.temperature",
	"openai_requests_per_second": "openai.requests_per_second",

	"tier_one_radius_km":  "recommend.tier_one_radius_km",
	"tier_two_radius_km":  "recommend.tier_two_radius_km",
	"default_limit":       "recommend.default_limit",
	"max_limit":           "recommend.max_limit",
	"explain_concurrency": "recommend.explain_concurrency",
	"explain_timeout":     "recommend.explain_timeout",
	"request_timeout":     "recommend.request_timeout",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unknown variables map to "" and are dropped by koanf.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as plain strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. YAML-sourced slices are left untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		s, ok := val.(string)
		if !ok {
			continue // already a slice from YAML or defaults
		}

		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
