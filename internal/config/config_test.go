package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("STORE_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "4000" {
		t.Fatalf("port=%q, want 4000", cfg.Port)
	}
	if cfg.JWTSecret != DefaultJWTSecret || !cfg.UsingDefaultSecret {
		t.Fatalf("expected the default secret to be flagged, got %+v", cfg)
	}
	if cfg.AccessTTL != time.Hour || cfg.RefreshTTL != 24*time.Hour {
		t.Fatalf("unexpected TTLs %s / %s", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Fatalf("backend=%q", cfg.StoreBackend)
	}
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}

	t.Setenv("JWT_SECRET", "real-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTSecret != "real-secret" || cfg.UsingDefaultSecret {
		t.Fatalf("unexpected secret handling %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PORT", "8081")
	t.Setenv("APP_PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("EVENTS_ENABLED", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8081" || cfg.AccessTTL != 15*time.Minute || cfg.BcryptCost != 12 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.StoreBackend != BackendRedis || !cfg.EventsEnabled {
		t.Fatalf("backend/events not applied: %+v", cfg)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("STORE_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("capacity=%d, want 1", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Fatalf("ttl=%s, want 5x refill interval", cfg.TTL)
	}
}
