// Package train implements the model training stage.
package train

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"genrecast/internal/artifact"
	"genrecast/internal/config"
	"genrecast/internal/evaluate"
	"genrecast/internal/faults"
	"genrecast/internal/forest"
	"genrecast/internal/logging"
	"genrecast/internal/stage"
)

const stageName = "training"

// topFeatureCount is how many feature importances are logged and reported.
const topFeatureCount = 10

// Trainer fits the forest on the transformed training matrix, scores it on
// the test matrix and persists it together with the preprocessor and label
// encoder fitted by the transformation stage.
type Trainer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewTrainer constructs the training stage.
func NewTrainer(cfg *config.Config, logger *slog.Logger) *Trainer {
	t := &Trainer{cfg: cfg}
	t.SetLogger(logger)
	return t
}

// SetLogger swaps the stage logger.
func (t *Trainer) SetLogger(logger *slog.Logger) {
	t.logger = logging.NewComponentLogger(logger, stageName)
}

// Name implements stage.Handler.
func (t *Trainer) Name() string { return stageName }

// HealthCheck always passes; inputs come from the transformation stage.
func (t *Trainer) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(stageName)
}

// Params maps the model configuration onto forest hyperparameters.
func Params(cfg config.Model) forest.Params {
	return forest.Params{
		Estimators:      cfg.Estimators,
		MaxDepth:        cfg.MaxDepth,
		MinSamplesSplit: cfg.MinSamplesSplit,
		MinSamplesLeaf:  cfg.MinSamplesLeaf,
		MaxFeatures:     cfg.MaxFeatures,
		ClassWeight:     cfg.ClassWeight,
		Seed:            cfg.Seed,
		Workers:         cfg.Workers,
	}
}

// Execute fits and evaluates the model, then installs the preprocessor,
// label encoder and model as one set. Nothing in the artifacts directory
// changes unless all three are written.
func (t *Trainer) Execute(ctx context.Context, run *stage.Run) error {
	if run.XTrain == nil || run.XTest == nil || run.Encoder == nil || run.Preprocessor == nil {
		return faults.Wrap(faults.ErrModel, stageName, "inputs", "Transformed matrices unavailable",
			errors.New("transformation stage did not run"))
	}
	params := Params(t.cfg.Model)
	classes := run.Encoder.Classes()

	start := time.Now()
	model, err := forest.Fit(ctx, run.XTrain, run.YTrain, len(classes), params)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return faults.Wrap(faults.ErrModel, stageName, "fit", "Unable to fit random forest", err)
	}
	t.logger.Info("model fitted",
		logging.Int("trees", len(model.Trees)),
		logging.Int("features", model.NumFeatures),
		logging.Int("classes", model.NumClasses),
		logging.Float64("mean_depth", model.MeanDepth()),
		logging.Duration("fit_duration", time.Since(start)),
	)

	predicted, err := model.PredictAll(run.XTest)
	if err != nil {
		return faults.Wrap(faults.ErrModel, stageName, "evaluate", "Unable to score test split", err)
	}
	report, err := evaluate.NewReport(run.YTest, predicted, classes)
	if err != nil {
		return faults.Wrap(faults.ErrModel, stageName, "evaluate", "Unable to build classification report", err)
	}
	t.logger.Info("model evaluated", logging.Float64("accuracy", report.Accuracy))
	t.logger.Info("classification report\n" + report.Render())

	top, err := model.TopFeatures(run.Preprocessor.FeatureNames(), topFeatureCount)
	if err != nil {
		return faults.Wrap(faults.ErrModel, stageName, "importances", "Model and preprocessor disagree on feature width", err)
	}
	for rank, fi := range top {
		t.logger.Debug("feature importance",
			logging.Int("rank", rank+1),
			logging.String("feature", fi.Feature),
			logging.Float64("importance", fi.Importance),
		)
	}

	if err := ctx.Err(); err != nil {
		return faults.Wrap(faults.ErrModel, stageName, "save", "Training canceled before artifacts were saved", err)
	}
	err = artifact.SaveSet(
		artifact.Entry{Path: t.cfg.PreprocessorPath(), Value: run.Preprocessor},
		artifact.Entry{Path: t.cfg.LabelEncoderPath(), Value: run.Encoder},
		artifact.Entry{Path: t.cfg.ModelPath(), Value: model},
	)
	if err != nil {
		return faults.Wrap(faults.ErrModel, stageName, "save artifacts", "Unable to persist model artifacts", err)
	}
	t.logger.Info("artifacts saved",
		logging.String("preprocessor_path", t.cfg.PreprocessorPath()),
		logging.String("label_encoder_path", t.cfg.LabelEncoderPath()),
		logging.String("model_path", t.cfg.ModelPath()),
	)

	run.Model = model
	run.Accuracy = report.Accuracy
	run.Report = report
	run.TopFeatures = top
	return nil
}
