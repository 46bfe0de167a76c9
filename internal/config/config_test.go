package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.EngineBinary != "delineate" {
		t.Errorf("expected default engine binary, got %q", cfg.EngineBinary)
	}
	if cfg.RequestTimeout != 120*time.Second {
		t.Errorf("unexpected default request timeout: %s", cfg.RequestTimeout)
	}
	if cfg.ArchiveEnabled() {
		t.Error("archival must be disabled by default")
	}
}

func TestLoadFromEnv_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("ENGINE_BINARY", "/opt/delineate/bin/delineate")
	t.Setenv("DA_LOCAL_MODEL_LARGE", "/ckpt/large.pt")
	t.Setenv("REQUEST_TIMEOUT", "45s")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != "9001" {
		t.Errorf("expected port 9001, got %q", cfg.Port)
	}
	if cfg.EngineBinary != "/opt/delineate/bin/delineate" {
		t.Errorf("unexpected engine binary: %q", cfg.EngineBinary)
	}
	if cfg.LocalModelLarge != "/ckpt/large.pt" {
		t.Errorf("unexpected checkpoint override: %q", cfg.LocalModelLarge)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.RequestTimeout)
	}
}

func TestArchiveEnabled(t *testing.T) {
	cfg := &Config{ArchiveAccount: "acct", ArchiveKey: "key"}
	if cfg.ArchiveEnabled() {
		t.Error("archival requires all three settings")
	}
	cfg.ArchiveContainer = "results"
	if !cfg.ArchiveEnabled() {
		t.Error("expected archival enabled")
	}
}

func TestServerAddress(t *testing.T) {
	cfg := &Config{Host: " 0.0.0.0 ", Port: " 8000 "}
	if got := cfg.ServerAddress(); got != "0.0.0.0:8000" {
		t.Errorf("unexpected address %q", got)
	}
}
