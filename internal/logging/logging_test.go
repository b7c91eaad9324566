package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got: %s", cfg.Level)
	}
	if cfg.FilePath != "" {
		t.Errorf("expected stderr-only default, got file: %s", cfg.FilePath)
	}
	if cfg.MaxSizeMB != 10 {
		t.Errorf("expected MaxSizeMB 10, got: %d", cfg.MaxSizeMB)
	}
	if cfg.MaxFiles != 5 {
		t.Errorf("expected MaxFiles 5, got: %d", cfg.MaxFiles)
	}
	if !cfg.WriteToStderr {
		t.Error("expected WriteToStderr to be true")
	}
}

func TestSetupStderrOnly(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "info"})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer cleanup()

	if logger == nil {
		t.Fatal("Setup returned nil logger")
	}
	// Cleanup must be safe to call repeatedly.
	cleanup()
}

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "searchsync.log")

	logger, cleanup, err := Setup(Config{
		Level:    "info",
		FilePath: path,
	})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("queue drained", slog.Int("markers", 12))
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("log line is not JSON: %v\nline: %s", err, line)
	}
	if record["msg"] != "queue drained" {
		t.Errorf("expected msg 'queue drained', got: %v", record["msg"])
	}
	if record["markers"] != float64(12) {
		t.Errorf("expected markers 12, got: %v", record["markers"])
	}
}

func TestSetupFiltersBelowLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchsync.log")

	logger, cleanup, err := Setup(Config{
		Level:    "warn",
		FilePath: path,
	})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Debug("dropped")
	logger.Info("also dropped")
	logger.Warn("kept")
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if strings.Contains(string(data), "dropped") {
		t.Errorf("below-level records were written:\n%s", data)
	}
	if !strings.Contains(string(data), "kept") {
		t.Errorf("warn record is missing:\n%s", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"chatty", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRotatingWriterRotatesAtSizeCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searchsync.log")

	// 1 MB cap; two writes of ~600 KB force one rotation.
	w, err := NewRotatingWriter(path, 1, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	chunk := strings.Repeat("x", 600*1024)
	for i := 0; i < 2; i++ {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotated file %s.1: %v", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("current log file missing: %v", err)
	}
	if info.Size() != int64(len(chunk)) {
		t.Errorf("current file holds %d bytes, want %d", info.Size(), len(chunk))
	}
}

func TestRotatingWriterDropsFilesBeyondCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searchsync.log")

	w, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	chunk := strings.Repeat("x", 700*1024)
	for i := 0; i < 5; i++ {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected %s.1 to exist: %v", path, err)
	}
	if _, err := os.Stat(path + ".2"); err != nil {
		t.Errorf("expected %s.2 to exist: %v", path, err)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("expected %s.3 to be removed, stat err: %v", path, err)
	}
}

func TestRotatingWriterConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchsync.log")

	w, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := w.Write([]byte("concurrent log line\n")); err != nil {
					t.Errorf("write failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if err := w.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
}

func TestRotatingWriterCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "searchsync.log")

	w, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file was not created: %v", err)
	}
}
