package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	err := Init(Config{
		Debug:     false,
		ConfigDir: configDir,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}
	if Logger.GetLevel() != log.WarnLevel {
		t.Errorf("expected warn level, got %v", Logger.GetLevel())
	}

	Warn("Test warning message", "roster", "r1")
	if _, err := os.Stat(filepath.Join(logDir, "rosterfill.log")); err != nil {
		t.Errorf("log file not written: %v", err)
	}
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want log.Level
	}{
		{"debug", Config{Debug: true}, log.DebugLevel},
		{"verbose", Config{Verbose: true}, log.InfoLevel},
		{"debug wins over verbose", Config{Debug: true, Verbose: true}, log.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			if err := Init(tt.cfg); err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			if Logger.GetLevel() != tt.want {
				t.Errorf("expected %v, got %v", tt.want, Logger.GetLevel())
			}
		})
	}
}

func TestInitWriterAndWith(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, log.InfoLevel)
	t.Cleanup(func() { Logger = nil })

	With("phase", "solve").Info("phase finished", "assigned", 3)
	Debug("dropped")

	out := buf.String()
	if !strings.Contains(out, "phase=solve") || !strings.Contains(out, "assigned=3") {
		t.Errorf("expected key/values in output, got %q", out)
	}
	if strings.Contains(out, "dropped") {
		t.Errorf("debug entry should be filtered at info level: %q", out)
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
	With("k", "v").Info("discarded")
}

func TestInitWithInvalidDirectory(t *testing.T) {
	err := Init(Config{
		Debug:     false,
		ConfigDir: "/nonexistent/path/that/should/not/exist",
	})
	if err == nil {
		t.Skip("Unable to test invalid directory - path was created or already exists")
	}
}
