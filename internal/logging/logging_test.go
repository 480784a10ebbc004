package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_WritesBracketFormattedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "coinfolio.log")

	logger, err := New(path, false)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello from test")
	_ = logger.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "[INFO]") {
		t.Fatalf("log line = %q, want [INFO] level tag", line)
	}
	if !strings.Contains(line, "hello from test") {
		t.Fatalf("log line = %q, want message present", line)
	}
}

func TestNew_DebugLevelGate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coinfolio.log")

	logger, err := New(path, false)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("should be filtered")
	_ = logger.Sync()

	content, _ := os.ReadFile(path)
	if strings.Contains(string(content), "should be filtered") {
		t.Fatalf("debug line written at info level: %q", content)
	}
}
