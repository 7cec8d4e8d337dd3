package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"genrecast/internal/config"
	"genrecast/internal/forest"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if !filepath.IsAbs(cfg.Paths.Dataset) || !strings.HasSuffix(cfg.Paths.Dataset, filepath.Join("data", "dataset.csv")) {
		t.Fatalf("unexpected dataset path: %q", cfg.Paths.Dataset)
	}
	if !filepath.IsAbs(cfg.Paths.ArtifactsDir) {
		t.Fatalf("expected absolute artifacts dir, got %q", cfg.Paths.ArtifactsDir)
	}
	if cfg.Ingestion.SampleSize != 20000 || cfg.Ingestion.TestRatio != 0.2 || cfg.Ingestion.Seed != 42 {
		t.Fatalf("unexpected ingestion defaults: %+v", cfg.Ingestion)
	}
	if cfg.Model.Estimators != 100 || cfg.Model.ClassWeight != config.ClassWeightBalanced {
		t.Fatalf("unexpected model defaults: %+v", cfg.Model)
	}
	if cfg.Server.Bind != "127.0.0.1:8088" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dataset := filepath.Join(t.TempDir(), "tracks.csv")
	artifacts := filepath.Join(t.TempDir(), "out")
	t.Setenv("GENRECAST_DATASET", dataset)
	t.Setenv("GENRECAST_ARTIFACTS_DIR", artifacts)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.Dataset != dataset {
		t.Fatalf("dataset = %q, want %q", cfg.Paths.Dataset, dataset)
	}
	if cfg.Paths.ArtifactsDir != artifacts {
		t.Fatalf("artifacts dir = %q, want %q", cfg.Paths.ArtifactsDir, artifacts)
	}
	if cfg.ModelPath() != filepath.Join(artifacts, "genre_model.json.zst") {
		t.Fatalf("unexpected model path: %q", cfg.ModelPath())
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "genrecast.toml")

	cfg := config.Default()
	cfg.Paths.Dataset = filepath.Join(dir, "tracks.csv")
	cfg.Ingestion.SampleSize = 500
	cfg.Model.Estimators = 25
	cfg.Model.MaxFeatures = " LOG2 "
	cfg.Logging.Format = "JSON"

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected file %q to be used, got %q (exists=%v)", path, resolved, exists)
	}
	if loaded.Ingestion.SampleSize != 500 || loaded.Model.Estimators != 25 {
		t.Fatalf("file values not applied: %+v %+v", loaded.Ingestion, loaded.Model)
	}
	if loaded.Model.MaxFeatures != config.MaxFeaturesLog2 {
		t.Fatalf("expected normalized max_features, got %q", loaded.Model.MaxFeatures)
	}
	if loaded.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", loaded.Logging.Format)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative sample", func(c *config.Config) { c.Ingestion.SampleSize = -1 }, "sample_size"},
		{"zero ratio", func(c *config.Config) { c.Ingestion.TestRatio = 0 }, "test_ratio"},
		{"full ratio", func(c *config.Config) { c.Ingestion.TestRatio = 1 }, "test_ratio"},
		{"no trees", func(c *config.Config) { c.Model.Estimators = 0 }, "n_estimators"},
		{"split too small", func(c *config.Config) { c.Model.MinSamplesSplit = 1 }, "min_samples_split"},
		{"bad max features", func(c *config.Config) { c.Model.MaxFeatures = "half" }, "max_features"},
		{"bad class weight", func(c *config.Config) { c.Model.ClassWeight = "subsample" }, "class_weight"},
		{"empty bind", func(c *config.Config) { c.Server.Bind = "" }, "server.bind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Model.Estimators != 100 {
		t.Fatalf("unexpected estimators from sample: %d", cfg.Model.Estimators)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ArtifactsDir = filepath.Join(base, "artifacts")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ArtifactsDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestDefaultModelFollowsForestDefaults(t *testing.T) {
	model := config.Default().Model
	params := forest.DefaultParams()
	if model.Estimators != params.Estimators || model.Seed != params.Seed || model.MaxDepth != params.MaxDepth ||
		model.MinSamplesSplit != params.MinSamplesSplit || model.MinSamplesLeaf != params.MinSamplesLeaf ||
		model.MaxFeatures != params.MaxFeatures || model.ClassWeight != params.ClassWeight {
		t.Fatalf("config model defaults %+v diverge from forest defaults %+v", model, params)
	}
}
