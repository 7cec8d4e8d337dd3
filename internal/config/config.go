package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"genrecast/internal/forest"
)

//go:embed sample_config.toml
var sampleConfig string

// Accepted values for Model.MaxFeatures.
const (
	MaxFeaturesSqrt = forest.MaxFeaturesSqrt
	MaxFeaturesLog2 = forest.MaxFeaturesLog2
	MaxFeaturesAll  = forest.MaxFeaturesAll
)

// Accepted values for Model.ClassWeight.
const (
	ClassWeightBalanced = forest.ClassWeightBalanced
	ClassWeightNone     = forest.ClassWeightNone
)

// Paths contains input and output locations.
type Paths struct {
	Dataset      string `toml:"dataset"`
	ArtifactsDir string `toml:"artifacts_dir"`
	LogDir       string `toml:"log_dir"`
}

// Ingestion controls subsampling and the train/test split.
type Ingestion struct {
	SampleSize int     `toml:"sample_size"`
	TestRatio  float64 `toml:"test_ratio"`
	Seed       uint64  `toml:"seed"`
}

// Model contains random forest hyperparameters.
type Model struct {
	Estimators      int    `toml:"n_estimators"`
	Seed            uint64 `toml:"seed"`
	MaxDepth        int    `toml:"max_depth"`
	MinSamplesSplit int    `toml:"min_samples_split"`
	MinSamplesLeaf  int    `toml:"min_samples_leaf"`
	MaxFeatures     string `toml:"max_features"`
	ClassWeight     string `toml:"class_weight"`
	Workers         int    `toml:"workers"`
}

// Server contains the web front end bind address.
type Server struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for genrecast.
//
// Configuration sections by subsystem:
//   - Paths: raw dataset, artifacts directory, log directory
//   - Ingestion: sample size, split ratio and seed
//   - Model: forest hyperparameters
//   - Server: web front end bind address
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Ingestion Ingestion `toml:"ingestion"`
	Model     Model     `toml:"model"`
	Server    Server    `toml:"server"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/genrecast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			return "", false, fmt.Errorf("config %s: %w", expanded, err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("genrecast.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the artifacts and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ArtifactsDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TrainCSVPath is where ingestion writes the training split.
func (c *Config) TrainCSVPath() string {
	return filepath.Join(c.Paths.ArtifactsDir, "train.csv")
}

// TestCSVPath is where ingestion writes the held-out split.
func (c *Config) TestCSVPath() string {
	return filepath.Join(c.Paths.ArtifactsDir, "test.csv")
}

// PreprocessorPath locates the fitted scaler/one-hot artifact.
func (c *Config) PreprocessorPath() string {
	return filepath.Join(c.Paths.ArtifactsDir, "preprocessor.json.zst")
}

// LabelEncoderPath locates the fitted label encoder artifact.
func (c *Config) LabelEncoderPath() string {
	return filepath.Join(c.Paths.ArtifactsDir, "label_encoder.json.zst")
}

// ModelPath locates the fitted forest artifact.
func (c *Config) ModelPath() string {
	return filepath.Join(c.Paths.ArtifactsDir, "genre_model.json.zst")
}

// RunDBPath locates the training run journal.
func (c *Config) RunDBPath() string {
	return filepath.Join(c.Paths.LogDir, "runs.db")
}

// LockPath is the file guarding the artifacts directory during training.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.ArtifactsDir, ".train.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
