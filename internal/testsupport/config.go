package testsupport

import (
	"path/filepath"
	"testing"

	"genrecast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Sampling is disabled and the forest is kept small so tests stay fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Dataset = filepath.Join(base, "data", "dataset.csv")
	cfgVal.Paths.ArtifactsDir = filepath.Join(base, "artifacts")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Ingestion.SampleSize = 0
	cfgVal.Model.Estimators = 10
	cfgVal.Model.Workers = 2
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSampleSize overrides the ingestion sample size.
func WithSampleSize(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingestion.SampleSize = n
	}
}

// WithEstimators overrides the number of trees.
func WithEstimators(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Model.Estimators = n
	}
}

// WithDataset writes a synthetic dataset with perGenre rows for each
// generated genre to the configured dataset path.
func WithDataset(perGenre int) ConfigOption {
	return func(b *configBuilder) {
		WriteDataset(b.t, b.cfg.Paths.Dataset, perGenre)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ArtifactsDir)
}
