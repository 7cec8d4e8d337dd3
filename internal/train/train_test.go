package train_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"slices"
	"testing"

	"genrecast/internal/artifact"
	"genrecast/internal/config"
	"genrecast/internal/faults"
	"genrecast/internal/forest"
	"genrecast/internal/ingest"
	"genrecast/internal/logging"
	"genrecast/internal/preprocess"
	"genrecast/internal/stage"
	"genrecast/internal/testsupport"
	"genrecast/internal/train"
	"genrecast/internal/transform"
)

func TestTrainerFitsEvaluatesAndSaves(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDataset(25))
	run := &stage.Run{}
	ctx := context.Background()
	if err := ingest.NewIngester(cfg, logging.NewNop()).Execute(ctx, run); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := transform.NewTransformer(cfg, logging.NewNop()).Execute(ctx, run); err != nil {
		t.Fatalf("transform: %v", err)
	}

	trainer := train.NewTrainer(cfg, logging.NewNop())
	if err := trainer.Execute(ctx, run); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if run.Model == nil || run.Report == nil {
		t.Fatal("expected model and report recorded on run")
	}
	if len(run.Model.Trees) != cfg.Model.Estimators {
		t.Fatalf("expected %d trees, got %d", cfg.Model.Estimators, len(run.Model.Trees))
	}
	// The synthetic genres are well separated.
	if run.Accuracy < 0.9 {
		t.Fatalf("accuracy %.2f unexpectedly low", run.Accuracy)
	}

	var saved forest.Forest
	if err := artifact.Load(cfg.ModelPath(), &saved); err != nil {
		t.Fatalf("load model: %v", err)
	}
	if saved.NumFeatures != run.Preprocessor.Width() || saved.NumClasses != len(testsupport.SyntheticLabels) {
		t.Fatalf("unexpected saved model shape: features=%d classes=%d", saved.NumFeatures, saved.NumClasses)
	}
	var encoder preprocess.LabelEncoder
	if err := artifact.Load(cfg.LabelEncoderPath(), &encoder); err != nil {
		t.Fatalf("load label encoder: %v", err)
	}
	if !slices.Equal(encoder.Classes(), testsupport.SyntheticLabels) {
		t.Fatalf("persisted classes = %v", encoder.Classes())
	}
	var pre preprocess.Preprocessor
	if err := artifact.Load(cfg.PreprocessorPath(), &pre); err != nil {
		t.Fatalf("load preprocessor: %v", err)
	}
	if pre.Width() != saved.NumFeatures {
		t.Fatalf("persisted preprocessor width %d, model expects %d", pre.Width(), saved.NumFeatures)
	}

	if want := min(10, pre.Width()); len(run.TopFeatures) != want {
		t.Fatalf("expected %d top features, got %d", want, len(run.TopFeatures))
	}
	for i := 1; i < len(run.TopFeatures); i++ {
		if run.TopFeatures[i].Importance > run.TopFeatures[i-1].Importance {
			t.Fatalf("top features not sorted: %v", run.TopFeatures)
		}
	}
}

func TestTrainerCanceledKeepsPreviousArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDataset(20))
	ctx := context.Background()
	transformed := func() *stage.Run {
		run := &stage.Run{}
		if err := ingest.NewIngester(cfg, nil).Execute(ctx, run); err != nil {
			t.Fatalf("ingest: %v", err)
		}
		if err := transform.NewTransformer(cfg, nil).Execute(ctx, run); err != nil {
			t.Fatalf("transform: %v", err)
		}
		return run
	}
	if err := train.NewTrainer(cfg, nil).Execute(ctx, transformed()); err != nil {
		t.Fatalf("first training: %v", err)
	}
	paths := []string{cfg.PreprocessorPath(), cfg.LabelEncoderPath(), cfg.ModelPath()}
	before := make([][]byte, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		before[i] = data
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := train.NewTrainer(cfg, nil).Execute(canceled, transformed()); err == nil {
		t.Fatal("expected training to fail on a canceled context")
	}
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		if !bytes.Equal(data, before[i]) {
			t.Fatalf("%s changed by a failed training run", p)
		}
	}
}

func TestTrainerRequiresTransformedInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	err := train.NewTrainer(cfg, nil).Execute(context.Background(), &stage.Run{})
	if !errors.Is(err, faults.ErrModel) {
		t.Fatalf("expected ErrModel, got %v", err)
	}
}

func TestParamsFromConfig(t *testing.T) {
	model := config.Default().Model
	model.MaxDepth = 12
	model.Workers = 3
	params := train.Params(model)
	if params.Estimators != 100 || params.MaxDepth != 12 || params.Workers != 3 ||
		params.MaxFeatures != forest.MaxFeaturesSqrt || params.ClassWeight != forest.ClassWeightBalanced || params.Seed != 42 {
		t.Fatalf("unexpected params: %+v", params)
	}
}
