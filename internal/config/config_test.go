package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/grandline?sslmode=disable")
	t.Setenv("FIREBASE_API_KEY", "test-api-key")
	t.Setenv("BASE_URL", "https://grandline.example.com")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.FirebaseAPIKey != "test-api-key" {
		t.Errorf("FirebaseAPIKey = %q, want %q", cfg.FirebaseAPIKey, "test-api-key")
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want default 8080", cfg.ServerPort)
	}
	if cfg.CatalogBaseURL != "https://api.api-onepiece.com/v2" {
		t.Errorf("CatalogBaseURL = %q, want default", cfg.CatalogBaseURL)
	}
	if cfg.CatalogCacheTTL != 15*time.Minute {
		t.Errorf("CatalogCacheTTL = %v, want 15m", cfg.CatalogCacheTTL)
	}
	if cfg.RateLimitGeneral != 120 || cfg.RateLimitAuth != 10 {
		t.Errorf("rate limits = (%d, %d), want defaults (120, 10)", cfg.RateLimitGeneral, cfg.RateLimitAuth)
	}
	if cfg.SessionRetentionDays != 30 {
		t.Errorf("SessionRetentionDays = %d, want 30", cfg.SessionRetentionDays)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FIREBASE_API_KEY", "")
	t.Setenv("BASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() error = nil, want error for missing required vars")
	}
	for _, name := range []string{"DATABASE_URL", "FIREBASE_API_KEY", "BASE_URL"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name missing variable %s", err.Error(), name)
		}
	}
}

func TestLoad_CookieSecureFollowsBaseURL(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure = false, want true for https BASE_URL")
	}

	t.Setenv("BASE_URL", "http://localhost:8080")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure = true, want false for http BASE_URL")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CATALOG_CACHE_TTL", "1h")
	t.Setenv("RATE_LIMIT_AUTH", "5")
	t.Setenv("CATALOG_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "9000" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9000")
	}
	if cfg.CatalogCacheTTL != time.Hour {
		t.Errorf("CatalogCacheTTL = %v, want 1h", cfg.CatalogCacheTTL)
	}
	if cfg.RateLimitAuth != 5 {
		t.Errorf("RateLimitAuth = %d, want 5", cfg.RateLimitAuth)
	}
	// パース不能な値はデフォルトにフォールバックする
	if cfg.CatalogTimeout != 10*time.Second {
		t.Errorf("CatalogTimeout = %v, want default 10s", cfg.CatalogTimeout)
	}
}
