package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Process.TimeLimitSeconds != 20 || cfg.Process.LockSeconds != 60 {
		t.Fatalf("unexpected defaults: %+v", cfg.Process)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wpq.yaml")
	content := []byte("process:\n  id: mailer\n  timeLimitSeconds: 0\nstorage:\n  backend: redis\n  redisAddr: localhost:6379\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Process.ID != "mailer" {
		t.Fatalf("id not applied: %+v", cfg.Process)
	}
	// explicit zero must survive the overlay
	if cfg.Process.TimeLimitSeconds != 0 {
		t.Fatalf("explicit zero lost: %d", cfg.Process.TimeLimitSeconds)
	}
	// absent fields keep defaults
	if cfg.Process.LockSeconds != 60 {
		t.Fatalf("default lost: %d", cfg.Process.LockSeconds)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.RedisAddr != "localhost:6379" {
		t.Fatalf("storage not applied: %+v", cfg.Storage)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wpq.json")
	if err := os.WriteFile(path, []byte(`{"process":{"id":"img"}}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Process.ID != "img" {
		t.Fatalf("id not applied")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("WPQ_PROCESS_ID", "envid")
	t.Setenv("WPQ_TIME_LIMIT_SECONDS", "7")
	t.Setenv("WPQ_STORAGE_BACKEND", "redis")
	cfg := Default()
	FromEnv(&cfg)
	if cfg.Process.ID != "envid" || cfg.Process.TimeLimitSeconds != 7 {
		t.Fatalf("env overlay missed: %+v", cfg.Process)
	}
	if cfg.Storage.Backend != "redis" {
		t.Fatalf("env overlay missed: %+v", cfg.Storage)
	}
}

func TestValidateRejects(t *testing.T) {
	cfg := Default()
	cfg.Process.LockSeconds = 10 // below time budget
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected lock/time validation error")
	}

	cfg = Default()
	cfg.Storage.Backend = "dynamo"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected backend validation error")
	}

	cfg = Default()
	cfg.Storage.Backend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected redisAddr validation error")
	}
}
