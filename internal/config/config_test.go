package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.MacUseDash {
		t.Error("MAC_USE_DASH should default to false")
	}
	if cfg.ScanInterval != 60*time.Second {
		t.Errorf("ScanInterval = %s, want 60s", cfg.ScanInterval)
	}
	if cfg.ExportDir == "" {
		t.Error("ExportDir must have a default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAC_USE_DASH", "true")
	t.Setenv("SCAN_INTERVAL_SECONDS", "5")
	t.Setenv("RUN_ONCE", "1")
	t.Setenv("SCAN_RESULT_TTL", "1h")

	cfg := Load()
	if !cfg.MacUseDash || !cfg.RunOnce {
		t.Errorf("bool envs not applied: %+v", cfg)
	}
	if cfg.ScanInterval != 5*time.Second {
		t.Errorf("ScanInterval = %s, want 5s", cfg.ScanInterval)
	}
	if cfg.ScanResultTTL != time.Hour {
		t.Errorf("ScanResultTTL = %s, want 1h", cfg.ScanResultTTL)
	}
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("SCAN_INTERVAL_SECONDS", "soon")
	t.Setenv("MAC_USE_DASH", "maybe")

	cfg := Load()
	if cfg.ScanInterval != 60*time.Second || cfg.MacUseDash {
		t.Errorf("invalid envs must fall back to defaults: %+v", cfg)
	}
}
