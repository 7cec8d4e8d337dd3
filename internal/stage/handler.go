package stage

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"genrecast/internal/evaluate"
	"genrecast/internal/forest"
	"genrecast/internal/preprocess"
)

// Handler describes the contract the pipeline manager needs from each stage.
type Handler interface {
	Name() string
	Execute(context.Context, *Run) error
	HealthCheck(context.Context) Health
}

// Run carries the state one training run hands from stage to stage.
type Run struct {
	ID      string
	Started time.Time

	// Set by ingestion.
	TrainPath string
	TestPath  string
	TrainRows int
	TestRows  int

	// Set by transformation.
	XTrain       *mat.Dense
	XTest        *mat.Dense
	YTrain       []int
	YTest        []int
	Preprocessor *preprocess.Preprocessor
	Encoder      *preprocess.LabelEncoder
	// Dropped counts rows removed because their genre consolidated to Other.
	Dropped int

	// Set by training.
	Model    *forest.Forest
	Accuracy float64
	Report   *evaluate.Report
	// TopFeatures holds the most important transformed features.
	TopFeatures []forest.FeatureImportance
}
