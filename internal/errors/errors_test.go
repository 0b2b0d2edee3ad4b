package errors

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/julianstephens/rosterfill/internal/loader"
	"github.com/julianstephens/rosterfill/internal/storage"
	"github.com/julianstephens/rosterfill/internal/writer"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      errors.New("something went wrong"),
			expected: "Error: something went wrong",
		},
		{
			name:     "load error carries hint",
			err:      fmt.Errorf("load: %w", &loader.LoadError{Kind: loader.KindNoTasksFound, RosterID: "r1", Missing: []string{loader.CollectionTasks}}),
			expected: "Error: load: roster r1: no staffing requirements with required_count > 0\nHint: seed staffing requirements with required_count > 0 before running autofill",
		},
		{
			name:     "unknown roster",
			err:      fmt.Errorf("roster r9: %w", storage.ErrNotFound),
			expected: "Error: roster r9: not found\nHint: check the --roster id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		args     []interface{}
		expected string
	}{
		{
			name:     "simple message",
			format:   "something went wrong",
			args:     nil,
			expected: "Error: something went wrong",
		},
		{
			name:     "formatted message with args",
			format:   "roster %s not found",
			args:     []interface{}{"r1"},
			expected: "Error: roster r1 not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Formatf(tt.format, tt.args...)
			if result != tt.expected {
				t.Errorf("Formatf(%q, %v) = %q, want %q", tt.format, tt.args, result, tt.expected)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"generic", errors.New("boom"), ExitFailure},
		{"no tasks", fmt.Errorf("load: %w", &loader.LoadError{Kind: loader.KindNoTasksFound}), ExitLoad},
		{"missing collection", &loader.LoadError{Kind: loader.KindMissingCollection, Missing: []string{"slots"}}, ExitLoad},
		{"write failed", fmt.Errorf("write: %w", writer.ErrWriteFailed), ExitWriteFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// TestFatal tests the Fatal function using exec helper process
func TestFatal(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL") == "1" {
		Fatal(fmt.Errorf("write: %w", writer.ErrWriteFailed))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var e *exec.ExitError
	if !errors.As(err, &e) {
		t.Fatalf("Fatal() did not exit with error: %v", err)
	}
	if e.ExitCode() != ExitWriteFailed {
		t.Errorf("Fatal() exit code = %d, want %d", e.ExitCode(), ExitWriteFailed)
	}
	if !strings.Contains(stderr.String(), "Error: write: write failed") {
		t.Errorf("Fatal() stderr = %q", stderr.String())
	}
}

// TestFatal_NilError tests that Fatal does nothing when passed a nil error
func TestFatal_NilError(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_NIL") == "1" {
		Fatal(nil)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal_NilError$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_NIL=1")

	if err := cmd.Run(); err != nil {
		t.Errorf("Fatal(nil) should not exit, but got error: %v", err)
	}
}

// TestFatalf tests the Fatalf function using exec helper process
func TestFatalf(t *testing.T) {
	if os.Getenv("GO_TEST_FATALF") == "1" {
		Fatalf("roster %s is locked", "r1")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatalf$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATALF=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var e *exec.ExitError
	if !errors.As(err, &e) {
		t.Fatalf("Fatalf() did not exit with error: %v", err)
	}
	if e.ExitCode() != ExitFailure {
		t.Errorf("Fatalf() exit code = %d, want %d", e.ExitCode(), ExitFailure)
	}
	if !strings.Contains(stderr.String(), "Error: roster r1 is locked") {
		t.Errorf("Fatalf() stderr = %q", stderr.String())
	}
}
