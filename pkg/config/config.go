// Package config handles loading and managing TMGate configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tmgate/tmgate/pkg/scoring"
)

// Config is the top-level configuration for TMGate.
type Config struct {
	Scoring     ScoringConfig     `yaml:"scoring"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Batch       BatchConfig       `yaml:"batch"`
	Database    DatabaseConfig    `yaml:"database"`
	Storage     StorageConfig     `yaml:"storage"`
}

// ScoringConfig controls aggregation and routing. Weights is an open map in
// the file so operators can see the metric names; it is validated into an
// explicit structure at load time, and the historical default weights
// (which sum to 1.10) are used when the section is absent.
type ScoringConfig struct {
	Weights    map[string]float64 `yaml:"weights"`
	Thresholds scoring.Thresholds `yaml:"thresholds"`
}

// CalibrationConfig controls where fitted mappings live and how strictly
// calibration datasets are parsed.
type CalibrationConfig struct {
	ArtifactPath  string `yaml:"artifact_path"`
	FailOnBadRows bool   `yaml:"fail_on_bad_rows"`
}

// BatchConfig controls batch execution.
type BatchConfig struct {
	Workers          int `yaml:"workers"`
	ProgressInterval int `yaml:"progress_interval"` // seconds between progress log lines
}

// DatabaseConfig points at the run store.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig selects the artifact storage backend: "local", "s3" or "gcs".
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"` // local backend root

	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Weights: map[string]float64{
				"accuracy":   0.6,
				"fluency":    0.25,
				"tone":       0.15,
				"term_match": 0.1,
			},
			Thresholds: scoring.DefaultThresholds(),
		},
		Calibration: CalibrationConfig{
			ArtifactPath: "calibration.json",
		},
		Batch: BatchConfig{
			Workers:          4,
			ProgressInterval: 10,
		},
		Storage: StorageConfig{
			Backend: "local",
			Path:    "/tmp/tmgate-data",
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// yaml merges into a pre-populated map, which would silently backfill
	// metric keys the file forgot. A weights section in the file must
	// replace the defaults wholesale so WeightsFromMap can catch gaps.
	cfg.Scoring.Weights = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Scoring.Weights == nil {
		cfg.Scoring.Weights = DefaultConfig().Scoring.Weights
	}

	return cfg, nil
}

// Aggregator validates the scoring section and builds the aggregator. This
// is where a missing or misspelled weight key fails, before any unit is
// processed.
func (c *Config) Aggregator() (*scoring.Aggregator, error) {
	weights, err := scoring.WeightsFromMap(c.Scoring.Weights)
	if err != nil {
		return nil, err
	}
	return scoring.NewAggregator(weights, c.Scoring.Thresholds)
}

// FindConfigFile looks for .tmgate/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".tmgate", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
