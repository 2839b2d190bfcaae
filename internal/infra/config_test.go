package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STUDIO_PORT", "")
	t.Setenv("STUDIO_DATA_DIR", "")
	t.Setenv("STUDIO_POLL_INTERVAL_SECONDS", "")
	t.Setenv("STUDIO_HISTORY_CAPACITY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8787" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8787")
	}
	if cfg.DataDir != "data" {
		t.Fatalf("DataDir mismatch: got %q want %q", cfg.DataDir, "data")
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("PollInterval mismatch: got %v want %v", cfg.PollInterval, 10*time.Second)
	}
	if cfg.HistoryCapacity != 50 {
		t.Fatalf("HistoryCapacity mismatch: got %d want 50", cfg.HistoryCapacity)
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("STUDIO_PORT", "1919")
	t.Setenv("STUDIO_POLL_INTERVAL_SECONDS", "3")
	t.Setenv("STUDIO_HISTORY_CAPACITY", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "1919" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "1919")
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("PollInterval mismatch: got %v want %v", cfg.PollInterval, 3*time.Second)
	}
	if cfg.HistoryCapacity != 5 {
		t.Fatalf("HistoryCapacity mismatch: got %d want 5", cfg.HistoryCapacity)
	}
}

func TestLoadConfigRejectsNonPositivePollInterval(t *testing.T) {
	t.Setenv("STUDIO_POLL_INTERVAL_SECONDS", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted a negative poll interval")
	}
}
