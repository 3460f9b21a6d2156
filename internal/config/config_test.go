package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got, want := cfg.BaseURL(), "http://localhost:8000/api/v1"; got != want {
		t.Errorf("BaseURL() = %q, want %q", got, want)
	}
	if cfg.HTTPTimeout != 0 {
		t.Errorf("HTTPTimeout = %v, want 0", cfg.HTTPTimeout)
	}
	if cfg.Locale != "en" {
		t.Errorf("Locale = %q, want en", cfg.Locale)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("LOSTCASTLE_API_URL", "http://castle:9000/")
	t.Setenv("LOSTCASTLE_API_PREFIX", "api/v2/")
	t.Setenv("LOSTCASTLE_HTTP_TIMEOUT", "3s")
	t.Setenv("LOSTCASTLE_LOCALE", "es")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got, want := cfg.BaseURL(), "http://castle:9000/api/v2"; got != want {
		t.Errorf("BaseURL() = %q, want %q", got, want)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("HTTPTimeout = %v, want 3s", cfg.HTTPTimeout)
	}
	if cfg.Locale != "es" {
		t.Errorf("Locale = %q, want es", cfg.Locale)
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("LOSTCASTLE_HTTP_TIMEOUT", "soon")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadConfigRejectsNegativeTimeout(t *testing.T) {
	t.Setenv("LOSTCASTLE_HTTP_TIMEOUT", "-1s")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}
