// Package config loads pipeline tuning from an optional YAML settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/rosterfill/internal/constants"
)

const FileName = "settings.yaml"

type Bottleneck struct {
	MinRatio float64 `yaml:"min_ratio"`
	MinOpen  int     `yaml:"min_open"`
}

// Settings tunes the autofill pipeline. Fields omitted from the file keep
// their defaults.
type Settings struct {
	BatchSize          int        `yaml:"batch_size"`
	WriteConcurrency   int        `yaml:"write_concurrency"`
	FairnessWindowDays int        `yaml:"fairness_window_days"`
	BackupBeforeWrite  bool       `yaml:"backup_before_write"`
	Bottleneck         Bottleneck `yaml:"bottleneck"`
}

func Default() Settings {
	return Settings{
		BatchSize:          constants.DefaultBatchSize,
		WriteConcurrency:   constants.DefaultWriteConcurrency,
		FairnessWindowDays: constants.DefaultFairnessWindowDays,
		BackupBeforeWrite:  constants.DefaultBackupBeforeWrite,
		Bottleneck: Bottleneck{
			MinRatio: constants.DefaultBottleneckMinRatio,
			MinOpen:  constants.DefaultBottleneckMinOpen,
		},
	}
}

// DefaultPath is the settings file next to the database.
func DefaultPath(configDir string) string {
	return filepath.Join(configDir, FileName)
}

// Parse decodes settings on top of the defaults and validates them.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config: decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads settings from path. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return s, nil
}

// Validate reports every invalid field, not just the first.
func (s Settings) Validate() error {
	var errs []error
	if s.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch_size must be at least 1, got %d", s.BatchSize))
	}
	if s.WriteConcurrency < 1 {
		errs = append(errs, fmt.Errorf("write_concurrency must be at least 1, got %d", s.WriteConcurrency))
	}
	if s.FairnessWindowDays < 1 {
		errs = append(errs, fmt.Errorf("fairness_window_days must be at least 1, got %d", s.FairnessWindowDays))
	}
	if s.Bottleneck.MinRatio < 0 || s.Bottleneck.MinRatio >= 1 {
		errs = append(errs, fmt.Errorf("bottleneck.min_ratio must be in [0, 1), got %v", s.Bottleneck.MinRatio))
	}
	if s.Bottleneck.MinOpen < 1 {
		errs = append(errs, fmt.Errorf("bottleneck.min_open must be at least 1, got %d", s.Bottleneck.MinOpen))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid settings: %w", errors.Join(errs...))
	}
	return nil
}
