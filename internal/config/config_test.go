package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/support-tickets/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr = %s, want 0.0.0.0:8080", cfg.App.Addr())
	}
	if cfg.Attachment.MaxBytes != config.DefaultAttachmentMaxBytes {
		t.Errorf("max bytes = %d, want %d", cfg.Attachment.MaxBytes, config.DefaultAttachmentMaxBytes)
	}
	if cfg.Storage.PresignTTL != 15*time.Minute {
		t.Errorf("presign ttl = %s, want 15m", cfg.Storage.PresignTTL)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("log level = %s, want info", cfg.Logger.Level)
	}
	if cfg.App.RequestTimeout != 30*time.Second {
		t.Errorf("request timeout = %s, want 30s", cfg.App.RequestTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("ATTACHMENT_MAX_BYTES", "2048")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@localhost:5432/tickets")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.App.Port != "9000" {
		t.Errorf("port = %s, want 9000", cfg.App.Port)
	}
	if cfg.Attachment.MaxBytes != 2048 {
		t.Errorf("max bytes = %d, want 2048", cfg.Attachment.MaxBytes)
	}
	if cfg.Postgres.DSN == "" {
		t.Error("expected postgres dsn to be loaded")
	}
	if !cfg.Redis.Enabled {
		t.Error("expected redis to be enabled")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "missing key", env: map[string]string{}, wantErr: "AUTH_JWT_SECRET"},
		{name: "bad port", env: map[string]string{"AUTH_JWT_SECRET": "s", "APP_PORT": "http"}, wantErr: "APP_PORT"},
		{name: "zero ceiling", env: map[string]string{"AUTH_JWT_SECRET": "s", "ATTACHMENT_MAX_BYTES": "0"}, wantErr: "ATTACHMENT_MAX_BYTES"},
		{name: "partial storage", env: map[string]string{"AUTH_JWT_SECRET": "s", "STORAGE_ENDPOINT": "localhost:9000"}, wantErr: "STORAGE_BUCKET"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("AUTH_JWT_SECRET", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %s", err, tc.wantErr)
			}
		})
	}
}
