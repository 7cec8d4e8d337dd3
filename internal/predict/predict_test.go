package predict_test

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"genrecast/internal/artifact"
	"genrecast/internal/config"
	"genrecast/internal/faults"
	"genrecast/internal/logging"
	"genrecast/internal/pipeline"
	"genrecast/internal/predict"
	"genrecast/internal/preprocess"
	"genrecast/internal/testsupport"
	"genrecast/internal/track"
)

func trained(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithDataset(20))
	if _, err := pipeline.NewManager(cfg, logging.NewNop()).Run(context.Background()); err != nil {
		t.Fatalf("train: %v", err)
	}
	return cfg
}

// operaLike sits on the synthetic opera profile, which consolidates to Classical.
var operaLike = track.Features{
	Danceability: 0.2, Energy: 0.15, Loudness: -22, Speechiness: 0.05,
	Acousticness: 0.95, Instrumentalness: 0.05, Liveness: 0.15, Valence: 0.5,
	Tempo: 80, Key: 3, Mode: 1, TimeSignature: 4,
}

func TestPredictReturnsDistribution(t *testing.T) {
	cfg := trained(t)
	service := predict.NewService(cfg, logging.NewNop())

	prediction, err := service.Predict(context.Background(), operaLike)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if prediction.Genre != "Classical" {
		t.Fatalf("Genre = %q, want Classical", prediction.Genre)
	}
	if len(prediction.Probabilities) != len(testsupport.SyntheticLabels) {
		t.Fatalf("expected one probability per class, got %d", len(prediction.Probabilities))
	}
	sum := 0.0
	for i, p := range prediction.Probabilities {
		sum += p.Probability
		if i > 0 && p.Probability > prediction.Probabilities[i-1].Probability {
			t.Fatal("probabilities must be sorted descending")
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum to %v", sum)
	}
	top := prediction.Probabilities[0]
	if top.Genre != prediction.Genre || math.Abs(top.Probability*100-prediction.Confidence) > 1e-9 {
		t.Fatalf("confidence %v does not match top class %+v", prediction.Confidence, top)
	}
}

func TestPredictUnseenCategoryStillWorks(t *testing.T) {
	cfg := trained(t)
	unseen := operaLike
	unseen.TimeSignature = 7
	unseen.Key = 42
	prediction, err := predict.NewService(cfg, nil).Predict(context.Background(), unseen)
	if err != nil {
		t.Fatalf("Predict with unseen categories: %v", err)
	}
	if prediction.Confidence <= 0 || prediction.Confidence > 100 {
		t.Fatalf("confidence %v outside (0,100]", prediction.Confidence)
	}
}

func TestPredictMissingArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := predict.NewService(cfg, nil)
	if _, err := service.Predict(context.Background(), operaLike); !errors.Is(err, faults.ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing, got %v", err)
	}
	if _, err := service.Classes(context.Background()); !errors.Is(err, faults.ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing from Classes, got %v", err)
	}
	for _, state := range service.Artifacts() {
		if state.Present {
			t.Fatalf("artifact %s should be absent", state.Name)
		}
	}
}

func TestPredictShapeMismatch(t *testing.T) {
	cfg := trained(t)

	// Refit the preprocessor on a single row so its width no longer matches the model.
	narrow := preprocess.New()
	if err := narrow.Fit([]track.Features{operaLike}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if err := artifact.Save(cfg.PreprocessorPath(), narrow); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err := predict.NewService(cfg, nil).Predict(context.Background(), operaLike)
	if !errors.Is(err, faults.ErrModel) {
		t.Fatalf("expected ErrModel, got %v", err)
	}
}

func TestClassesAndArtifacts(t *testing.T) {
	cfg := trained(t)
	service := predict.NewService(cfg, nil)
	classes, err := service.Classes(context.Background())
	if err != nil {
		t.Fatalf("Classes: %v", err)
	}
	if !slices.Equal(classes, testsupport.SyntheticLabels) {
		t.Fatalf("classes = %v", classes)
	}
	for _, state := range service.Artifacts() {
		if !state.Present {
			t.Fatalf("artifact %s missing after training", state.Name)
		}
	}
}

func TestPredictHonorsCanceledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := predict.NewService(cfg, nil).Predict(ctx, operaLike)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !errors.Is(err, faults.ErrModel) {
		t.Fatalf("expected model error kind, got %v", err)
	}
	if details, ok := faults.Details(err); !ok || details.Stage != "predict" {
		t.Fatalf("unexpected error details: %+v", details)
	}
}
