package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"VERBOSE": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q): got %v, want %v", input, got, want)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "engine.log")

	log, err := New(Config{Level: "debug", Outputs: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	log.Info("bank loaded", "path", "banks/linux/Master.bank")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "bank loaded") {
		t.Fatalf("log file missing message: %q", raw)
	}
	if !strings.Contains(string(raw), "banks/linux/Master.bank") {
		t.Fatalf("log file missing attribute: %q", raw)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	log, err := New(Config{Level: "warn", Outputs: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	log.Info("suppressed")
	log.Warn("kept")

	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "suppressed") {
		t.Fatal("info record should have been filtered at warn level")
	}
	if !strings.Contains(string(raw), "kept") {
		t.Fatal("warn record should have been written")
	}
}
