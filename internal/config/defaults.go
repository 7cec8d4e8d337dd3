package config

import "genrecast/internal/forest"

const (
	defaultDatasetPath  = "data/dataset.csv"
	defaultArtifactsDir = "artifacts"
	defaultLogDir       = "logs"
	defaultSampleSize   = 20000
	defaultTestRatio    = 0.2
	defaultSeed         = 42
	defaultServerBind   = "127.0.0.1:8088"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultLogRetention = 30
)

// Default returns a Config populated with repository defaults. Model
// hyperparameters follow forest.DefaultParams.
func Default() Config {
	model := forest.DefaultParams()
	return Config{
		Paths: Paths{
			Dataset:      defaultDatasetPath,
			ArtifactsDir: defaultArtifactsDir,
			LogDir:       defaultLogDir,
		},
		Ingestion: Ingestion{
			SampleSize: defaultSampleSize,
			TestRatio:  defaultTestRatio,
			Seed:       defaultSeed,
		},
		Model: Model{
			Estimators:      model.Estimators,
			Seed:            model.Seed,
			MaxDepth:        model.MaxDepth,
			MinSamplesSplit: model.MinSamplesSplit,
			MinSamplesLeaf:  model.MinSamplesLeaf,
			MaxFeatures:     model.MaxFeatures,
			ClassWeight:     model.ClassWeight,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetention,
		},
	}
}
