package config

import (
	"testing"
	"time"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_ACCESS_SECRET is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("PHONE_DEFAULT_REGION", "nl")
	t.Setenv("SMTP_HOST", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetDatabaseURL() != "file:test.db" {
		t.Fatalf("expected database url file:test.db, got %q", cfg.GetDatabaseURL())
	}
	if cfg.GetPhoneDefaultRegion() != "NL" {
		t.Fatalf("expected upper-cased region NL, got %q", cfg.GetPhoneDefaultRegion())
	}
	if cfg.IsSMTPEnabled() {
		t.Fatal("expected SMTP to be disabled without SMTP_HOST")
	}
	if cfg.GetAccessTokenTTL() <= 0 {
		t.Fatalf("expected positive access token ttl, got %s", cfg.GetAccessTokenTTL())
	}
	if cfg.GetDashboardCacheTTL() != 30*time.Second {
		t.Fatalf("expected 30s dashboard cache ttl, got %s", cfg.GetDashboardCacheTTL())
	}
}

func TestLoadRejectsWildcardCORSWithCredentials(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for wildcard CORS with credentials")
	}
}
