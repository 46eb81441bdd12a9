package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Env != "dev" {
		t.Errorf("got env %q, want dev", cfg.Env)
	}

	if cfg.Port != 8080 {
		t.Errorf("got port %d, want 8080", cfg.Port)
	}

	if cfg.TokenTTL != 30*24*time.Hour {
		t.Errorf("got ttl %v, want 30 days", cfg.TokenTTL)
	}

	if cfg.StorageMode != "local" || cfg.SkipBackgroundRemoval() {
		t.Errorf("default storage mode should process backgrounds, got %q", cfg.StorageMode)
	}

	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("got max upload %d", cfg.MaxUploadBytes)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("TOKEN_TTL_DAYS", "7")
	t.Setenv("STORAGE_MODE", "volume")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/wardrobe")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg := Load()

	if cfg.Port != 9999 {
		t.Errorf("got port %d", cfg.Port)
	}

	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("got ttl %v", cfg.TokenTTL)
	}

	if !cfg.SkipBackgroundRemoval() {
		t.Error("volume mode should skip background removal")
	}

	if cfg.DBURL != "postgres://u:p@db:5432/wardrobe" {
		t.Errorf("DATABASE_URL not honored: %q", cfg.DBURL)
	}

	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://staging.example.com" {
		t.Errorf("csv origins not parsed: %v", cfg.CORSOrigins)
	}
}

func TestValidateRequiresSecretOutsideDev(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  string
		wantErr bool
	}{
		{name: "prod_without_secret", env: "prod", secret: "", wantErr: true},
		{name: "staging_without_secret", env: "staging", secret: "", wantErr: true},
		{name: "prod_with_secret", env: "prod", secret: "s3cret"},
		{name: "dev_without_secret", env: "dev", secret: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Env: tc.env, JWTSecret: tc.secret}

			err := cfg.Validate()

			if tc.wantErr && err == nil {
				t.Fatal("expected a validation error, got nil")
			}

			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestBadIntFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("got port %d, want fallback 8080", cfg.Port)
	}
}
