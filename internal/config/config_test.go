package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MULASTUDIO_CONFIG", "/nonexistent/config.toml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:10001/api" {
		t.Fatalf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.Poll.Interval != 2*time.Second {
		t.Fatalf("poll interval = %v", cfg.Poll.Interval)
	}
	if cfg.Poll.MaxAttempts != 120 {
		t.Fatalf("poll attempts = %d", cfg.Poll.MaxAttempts)
	}
}

func TestEnvOverridesAndTrailingSlash(t *testing.T) {
	t.Setenv("MULASTUDIO_CONFIG", "/nonexistent/config.toml")
	t.Setenv("MULASTUDIO_API_BASE_URL", "https://studio.example.com/api/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "https://studio.example.com/api" {
		t.Fatalf("base url = %q, trailing slash must be stripped", cfg.API.BaseURL)
	}
}
