package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	s, err := Parse([]byte(`
batch_size: 10
backup_before_write: false
bottleneck:
  min_open: 5
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := Default()
	want.BatchSize = 10
	want.BackupBeforeWrite = false
	want.Bottleneck.MinOpen = 5
	if s != want {
		t.Errorf("Parse() = %+v, want %+v", s, want)
	}
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse([]byte("  \n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s != Default() {
		t.Errorf("Parse(empty) = %+v", s)
	}
}

func TestValidateListsEveryField(t *testing.T) {
	_, err := Parse([]byte(`
batch_size: 0
write_concurrency: -1
fairness_window_days: 0
bottleneck: { min_ratio: 1.5, min_open: 0 }
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"batch_size", "write_concurrency", "fairness_window_days", "bottleneck.min_ratio", "bottleneck.min_open"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	if _, err := Parse([]byte("batch_size: [1, 2")); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields defaults", func(t *testing.T) {
		s, err := Load(DefaultPath(dir))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if s != Default() {
			t.Errorf("Load() = %+v", s)
		}
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(dir, "custom.yaml")
		if err := os.WriteFile(path, []byte("write_concurrency: 8\n"), 0600); err != nil {
			t.Fatal(err)
		}
		s, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if s.WriteConcurrency != 8 {
			t.Errorf("WriteConcurrency = %d", s.WriteConcurrency)
		}
	})

	t.Run("invalid file names the path", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("batch_size: 0\n"), 0600); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "bad.yaml") {
			t.Errorf("Load() error = %v", err)
		}
	})
}
