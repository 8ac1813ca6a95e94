package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/lectern/internal/config"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	projectDir := t.TempDir()
	logger, err := New(projectDir)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Printf("bridge listening on %s\n", "127.0.0.1:8765")
	logger.With("course", "c-1").Warn("transition rejected", "event", "upload", "email", "eve@example.com")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	path := filepath.Join(projectDir, config.LecternDir, "logs", FileName)
	if logger.Path() != path {
		t.Fatalf("path = %s, want %s", logger.Path(), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	for _, want := range []string{"bridge listening on 127.0.0.1:8765", `"course":"c-1"`, `"event":"upload"`, "[REDACTED]"} {
		if !strings.Contains(content, want) {
			t.Fatalf("log missing %q:\n%s", want, content)
		}
	}
	if strings.Contains(content, "eve@example.com") {
		t.Fatalf("email leaked into log:\n%s", content)
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored %d", 1)
	logger.Info("ignored")
	logger.Error("ignored", "k", "v")
	if logger.With("k", "v") != nil {
		t.Fatalf("expected nil child logger")
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("close nil logger: %v", err)
	}
}
