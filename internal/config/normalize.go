package config

import (
	"fmt"
	"os"
	"strings"

	"genrecast/internal/forest"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeModel()
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("GENRECAST_DATASET"); ok && strings.TrimSpace(value) != "" {
		c.Paths.Dataset = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("GENRECAST_ARTIFACTS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ArtifactsDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.Dataset) == "" {
		c.Paths.Dataset = defaultDatasetPath
	}
	if strings.TrimSpace(c.Paths.ArtifactsDir) == "" {
		c.Paths.ArtifactsDir = defaultArtifactsDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}

	var err error
	if c.Paths.Dataset, err = expandPath(c.Paths.Dataset); err != nil {
		return fmt.Errorf("paths.dataset: %w", err)
	}
	if c.Paths.ArtifactsDir, err = expandPath(c.Paths.ArtifactsDir); err != nil {
		return fmt.Errorf("paths.artifacts_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeModel() {
	defaults := forest.DefaultParams()
	c.Model.MaxFeatures = strings.ToLower(strings.TrimSpace(c.Model.MaxFeatures))
	if c.Model.MaxFeatures == "" {
		c.Model.MaxFeatures = defaults.MaxFeatures
	}
	c.Model.ClassWeight = strings.ToLower(strings.TrimSpace(c.Model.ClassWeight))
	if c.Model.ClassWeight == "" {
		c.Model.ClassWeight = defaults.ClassWeight
	}
	if c.Model.Workers < 0 {
		c.Model.Workers = 0
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
