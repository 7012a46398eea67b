package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.StorageBackend != "filesystem" {
		t.Errorf("expected filesystem backend, got %q", cfg.StorageBackend)
	}
	if cfg.CookieName != "vertex_session" {
		t.Errorf("expected default cookie name, got %q", cfg.CookieName)
	}
	if cfg.SessionTTL() != 0 {
		t.Errorf("expected tokens to default to no expiry, got %v", cfg.SessionTTL())
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("expected 100MB default max file size, got %d", cfg.MaxFileSize)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vertex.yaml")
	yaml := `
port: "9000"
base_url: "https://files.example.com"
session_ttl_hours: 1.5
storage_backend: s3
s3:
  endpoint: "minio.internal:9000"
  access_key: "ak"
  secret_key: "sk"
  bucket: "vertex-files"
  url_expiry_hours: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("VERTEX_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("expected port 9000 from file, got %q", cfg.Port)
	}
	if cfg.BaseURL != "https://files.example.com" {
		t.Errorf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.SessionTTL() != 90*time.Minute {
		t.Errorf("expected 90m session ttl, got %v", cfg.SessionTTL())
	}
	if cfg.S3.Bucket != "vertex-files" {
		t.Errorf("unexpected bucket %q", cfg.S3.Bucket)
	}
	if cfg.S3URLExpiry() != 2*time.Hour {
		t.Errorf("expected 2h url expiry, got %v", cfg.S3URLExpiry())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vertex.yaml")
	if err := os.WriteFile(path, []byte("port: \"9000\"\n"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("VERTEX_CONFIG", path)
	t.Setenv("PORT", "7777")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7777" {
		t.Errorf("environment should win over file, got port %q", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			StorageBackend: "filesystem",
			StoragePath:    "./media",
			MaxFileSize:    1024,
		}
	}

	t.Run("valid", func(t *testing.T) {
		if err := base().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base()
		cfg.StorageBackend = "ftp"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for unknown backend")
		}
	})

	t.Run("filesystem without path", func(t *testing.T) {
		cfg := base()
		cfg.StoragePath = ""
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing storage path")
		}
	})

	t.Run("s3 without credentials", func(t *testing.T) {
		cfg := base()
		cfg.StorageBackend = "s3"
		cfg.S3 = S3Config{Endpoint: "minio:9000", Bucket: "b"}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing s3 credentials")
		}
	})

	t.Run("negative session ttl", func(t *testing.T) {
		cfg := base()
		cfg.SessionTTLHours = -1
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for negative ttl")
		}
	})

	t.Run("zero max file size", func(t *testing.T) {
		cfg := base()
		cfg.MaxFileSize = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero max file size")
		}
	})
}
