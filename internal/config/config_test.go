package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.DatabaseURL == "" {
		t.Error("expected default database url")
	}
	if cfg.BlockHTTPTimeout != 30*time.Second {
		t.Errorf("expected 30s block timeout, got %v", cfg.BlockHTTPTimeout)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Errorf("unexpected addr: %s", cfg.HTTPAddr())
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("GCS_BUCKET", "reports")
	t.Setenv("SCHEDULER_TICK", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.HTTPPort)
	}
	if cfg.GCSBucket != "reports" {
		t.Errorf("expected bucket reports, got %s", cfg.GCSBucket)
	}
	if cfg.SchedulerTick != time.Minute {
		t.Errorf("expected 1m tick, got %v", cfg.SchedulerTick)
	}
}

func TestValidate_BadPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}
