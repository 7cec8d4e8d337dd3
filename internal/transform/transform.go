// Package transform implements the data transformation stage: it consolidates
// genres, fits the preprocessor and label encoder on the training split and
// produces the model matrices.
package transform

import (
	"context"
	"fmt"
	"log/slog"

	"genrecast/internal/config"
	"genrecast/internal/dataset"
	"genrecast/internal/faults"
	"genrecast/internal/genre"
	"genrecast/internal/logging"
	"genrecast/internal/preprocess"
	"genrecast/internal/stage"
	"genrecast/internal/track"
)

const stageName = "transformation"

// Transformer turns the ingested CSV splits into model-ready matrices.
type Transformer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewTransformer constructs the transformation stage.
func NewTransformer(cfg *config.Config, logger *slog.Logger) *Transformer {
	t := &Transformer{cfg: cfg}
	t.SetLogger(logger)
	return t
}

// SetLogger swaps the stage logger.
func (t *Transformer) SetLogger(logger *slog.Logger) {
	t.logger = logging.NewComponentLogger(logger, stageName)
}

// Name implements stage.Handler.
func (t *Transformer) Name() string { return stageName }

// HealthCheck always passes; the splits are produced by the preceding stage.
func (t *Transformer) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(stageName)
}

// Execute reads the splits named on run, fits the preprocessor and label
// encoder, and stores them with the transformed matrices on run. Nothing is
// written to the artifacts directory; the training stage persists the
// fitted objects together with the model.
func (t *Transformer) Execute(ctx context.Context, run *stage.Run) error {
	trainPath, testPath := run.TrainPath, run.TestPath
	if trainPath == "" {
		trainPath = t.cfg.TrainCSVPath()
	}
	if testPath == "" {
		testPath = t.cfg.TestCSVPath()
	}

	train, droppedTrain, err := readConsolidated(trainPath)
	if err != nil {
		return faults.Wrap(faults.ErrTransform, stageName, "read train split", "Unable to load training split", err)
	}
	test, droppedTest, err := readConsolidated(testPath)
	if err != nil {
		return faults.Wrap(faults.ErrTransform, stageName, "read test split", "Unable to load test split", err)
	}
	run.Dropped = droppedTrain + droppedTest
	if len(train) == 0 || len(test) == 0 {
		return faults.Wrap(faults.ErrTransform, stageName, "filter", "No rows left after dropping Other genres",
			fmt.Errorf("train=%d test=%d", len(train), len(test)))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	encoder := &preprocess.LabelEncoder{}
	if err := encoder.Fit(labelsOf(train)); err != nil {
		return faults.Wrap(faults.ErrTransform, stageName, "fit label encoder", "Unable to fit label encoder", err)
	}
	yTrain, err := encoder.EncodeAll(labelsOf(train))
	if err != nil {
		return faults.Wrap(faults.ErrTransform, stageName, "encode train labels", "Unable to encode training labels", err)
	}
	yTest, err := encoder.EncodeAll(labelsOf(test))
	if err != nil {
		return faults.Wrap(faults.ErrTransform, stageName, "encode test labels", "Test split holds a genre absent from training", err)
	}

	pre := preprocess.New()
	if err := pre.Fit(track.FeaturesOf(train)); err != nil {
		return faults.Wrap(faults.ErrTransform, stageName, "fit preprocessor", "Unable to fit preprocessor", err)
	}
	xTrain, err := pre.TransformAll(track.FeaturesOf(train))
	if err != nil {
		return faults.Wrap(faults.ErrTransform, stageName, "transform train", "Unable to transform training features", err)
	}
	xTest, err := pre.TransformAll(track.FeaturesOf(test))
	if err != nil {
		return faults.Wrap(faults.ErrTransform, stageName, "transform test", "Unable to transform test features", err)
	}

	run.XTrain, run.XTest = xTrain, xTest
	run.YTrain, run.YTest = yTrain, yTest
	run.Preprocessor = pre
	run.Encoder = encoder

	t.logger.Info("features transformed",
		logging.Int("train_rows", len(train)),
		logging.Int("test_rows", len(test)),
		logging.Int("dropped_other", run.Dropped),
		logging.Int("feature_width", pre.Width()),
		logging.Int("classes", len(encoder.Labels)),
	)
	return nil
}

// readConsolidated loads a split, rewrites each genre to its consolidated
// label and drops rows that fall into Other.
func readConsolidated(path string) ([]track.Record, int, error) {
	frame, err := dataset.ReadFrame(path)
	if err != nil {
		return nil, 0, err
	}
	records, err := frame.Records()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	kept := records[:0]
	dropped := 0
	for _, rec := range records {
		rec.Genre = genre.Consolidate(rec.Genre)
		if genre.IsOther(rec.Genre) {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, dropped, nil
}

func labelsOf(records []track.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Genre
	}
	return out
}
