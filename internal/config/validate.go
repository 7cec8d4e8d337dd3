package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIngestion(); err != nil {
		return err
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.Dataset) == "" {
		return errors.New("paths.dataset must be set")
	}
	if strings.TrimSpace(c.Paths.ArtifactsDir) == "" {
		return errors.New("paths.artifacts_dir must be set")
	}
	return nil
}

func (c *Config) validateIngestion() error {
	if c.Ingestion.SampleSize < 0 {
		return errors.New("ingestion.sample_size must be >= 0")
	}
	if c.Ingestion.TestRatio <= 0 || c.Ingestion.TestRatio >= 1 {
		return errors.New("ingestion.test_ratio must be between 0 and 1 (exclusive)")
	}
	return nil
}

func (c *Config) validateModel() error {
	if err := ensurePositiveMap(map[string]int{
		"model.n_estimators":     c.Model.Estimators,
		"model.min_samples_leaf": c.Model.MinSamplesLeaf,
	}); err != nil {
		return err
	}
	if c.Model.MinSamplesSplit < 2 {
		return errors.New("model.min_samples_split must be >= 2")
	}
	if c.Model.MaxDepth < 0 {
		return errors.New("model.max_depth must be >= 0")
	}
	switch c.Model.MaxFeatures {
	case MaxFeaturesSqrt, MaxFeaturesLog2, MaxFeaturesAll:
	default:
		return fmt.Errorf("model.max_features: unsupported value %q (want sqrt, log2 or all)", c.Model.MaxFeatures)
	}
	switch c.Model.ClassWeight {
	case ClassWeightBalanced, ClassWeightNone:
	default:
		return fmt.Errorf("model.class_weight: unsupported value %q (want balanced or none)", c.Model.ClassWeight)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
