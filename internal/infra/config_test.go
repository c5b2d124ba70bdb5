package infra

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/thumbly_test")
	t.Setenv("ACCESS_TOKEN_SECRET", "test-secret")
	t.Setenv("IMAGEKIT_PRIVATE_KEY", "private_test")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.UploadFolder != "/generated/thumbnails" {
		t.Fatalf("upload folder = %q", cfg.UploadFolder)
	}
	if cfg.ModelTimeout != 120*time.Second {
		t.Fatalf("model timeout = %v", cfg.ModelTimeout)
	}
	if cfg.RefreshTokenSecret != cfg.AccessTokenSecret {
		t.Fatal("refresh secret should default to the access secret")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigRequiredFields(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ACCESS_TOKEN_SECRET", "x")
	t.Setenv("IMAGEKIT_PRIVATE_KEY", "x")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("missing DATABASE_URL should fail")
	}

	setRequiredEnv(t)
	t.Setenv("IMAGEKIT_PRIVATE_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("missing IMAGEKIT_PRIVATE_KEY should fail")
	}
}

func TestLoadConfigCSVParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
}
