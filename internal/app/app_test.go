package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestInit_WithValidConfig_Succeeds(t *testing.T) {
	t.Setenv("BASE_URL", "https://skylaunch.example.com")
	t.Setenv("SERVER_PORT", "9090")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true for an https BASE_URL")
	}

	// Verify that slog global logger is configured for JSON output
	slog.Default().Info("init test")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got error: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "init test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "init test")
	}
}

func TestInit_AppliesLogLevel(t *testing.T) {
	t.Setenv("BASE_URL", "http://localhost:8080")
	t.Setenv("LOG_LEVEL", "warn")
	t.Cleanup(func() { logLevel.Set(slog.LevelInfo) })

	var buf bytes.Buffer
	if _, err := Init(&buf); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	slog.Default().Info("should be filtered")
	if buf.Len() != 0 {
		t.Errorf("info log should be filtered at warn level, got: %s", buf.String())
	}

	slog.Default().Warn("should be written")
	if buf.Len() == 0 {
		t.Error("warn log should be written at warn level")
	}
}

func TestInit_WithInvalidBaseURL_ReturnsError(t *testing.T) {
	t.Setenv("BASE_URL", "ftp://example.com")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err == nil {
		t.Fatal("expected error for invalid BASE_URL, got nil")
	}
	if cfg != nil {
		t.Error("expected nil config on error")
	}
}
