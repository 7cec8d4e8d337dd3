package pipeline_test

import (
	"context"
	"errors"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"genrecast/internal/artifact"
	"genrecast/internal/faults"
	"genrecast/internal/ingest"
	"genrecast/internal/logging"
	"genrecast/internal/pipeline"
	"genrecast/internal/predict"
	"genrecast/internal/runlog"
	"genrecast/internal/stage"
	"genrecast/internal/testsupport"
	"genrecast/internal/track"
	"genrecast/internal/transform"
)

func TestRunTrainsAndPredicts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDataset(25))
	journal := testsupport.MustOpenRunLog(t, cfg)
	ctx := context.Background()

	manager := pipeline.NewManager(cfg, logging.NewNop(), pipeline.WithJournal(journal))
	run, err := manager.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.ID == "" || run.Model == nil || run.Report == nil {
		t.Fatalf("incomplete run: %+v", run)
	}
	for _, path := range []string{cfg.PreprocessorPath(), cfg.LabelEncoderPath(), cfg.ModelPath(), cfg.TrainCSVPath(), cfg.TestCSVPath()} {
		if !artifact.Exists(path) {
			t.Fatalf("expected %s to exist", path)
		}
	}

	record, err := journal.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("journal Get: %v", err)
	}
	if record.Status != runlog.StatusCompleted || record.Stage != "training" || record.Accuracy == nil {
		t.Fatalf("unexpected journal record: %+v", record)
	}
	if record.TrainRows != run.TrainRows || record.DroppedRows != run.Dropped {
		t.Fatalf("journal counts differ from run: %+v vs %+v", record, run)
	}

	service := predict.NewService(cfg, logging.NewNop())
	prediction, err := service.Predict(ctx, track.Features{
		Danceability: 0.7, Energy: 0.8, Loudness: -5.0, Speechiness: 0.1,
		Acousticness: 0.2, Instrumentalness: 0.0, Liveness: 0.15, Valence: 0.6,
		Tempo: 120.0, Key: 5, Mode: 1, TimeSignature: 4,
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	known := false
	for _, label := range testsupport.SyntheticLabels {
		if prediction.Genre == label {
			known = true
		}
	}
	if !known {
		t.Fatalf("predicted genre %q is not a trained class", prediction.Genre)
	}
	if prediction.Confidence <= 0 || prediction.Confidence > 100 {
		t.Fatalf("confidence %v outside (0,100]", prediction.Confidence)
	}
}

func TestRunFailsWithoutDataset(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal := testsupport.MustOpenRunLog(t, cfg)

	run, err := pipeline.NewManager(cfg, nil, pipeline.WithJournal(journal)).Run(context.Background())
	if !errors.Is(err, faults.ErrIngestion) {
		t.Fatalf("expected ErrIngestion, got %v", err)
	}
	record, getErr := journal.Get(context.Background(), run.ID)
	if getErr != nil {
		t.Fatalf("journal Get: %v", getErr)
	}
	if record.Status != runlog.StatusFailed || record.ErrorKind != "ingestion" {
		t.Fatalf("expected failed ingestion record, got %+v", record)
	}
	if artifact.Exists(cfg.ModelPath()) {
		t.Fatal("no model should be written on failure")
	}
}

type recordingStage struct {
	name  string
	err   error
	calls *[]string
}

func (s recordingStage) Name() string { return s.name }

func (s recordingStage) Execute(context.Context, *stage.Run) error {
	*s.calls = append(*s.calls, s.name)
	return s.err
}

func (s recordingStage) HealthCheck(context.Context) stage.Health { return stage.Healthy(s.name) }

func TestRunStopsAtFirstFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var calls []string
	boom := faults.Wrap(faults.ErrTransform, "second", "op", "broken", errors.New("boom"))

	manager := pipeline.NewManager(cfg, nil, pipeline.WithStages(
		recordingStage{name: "first", calls: &calls},
		recordingStage{name: "second", err: boom, calls: &calls},
		recordingStage{name: "third", calls: &calls},
	))
	_, err := manager.Run(context.Background())
	if !errors.Is(err, faults.ErrTransform) {
		t.Fatalf("expected the stage error to propagate, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("expected execution to stop after the failing stage, got %v", calls)
	}
}

func TestFailedRetrainKeepsPreviousArtifactSet(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDataset(25))
	ctx := context.Background()
	if _, err := pipeline.NewManager(cfg, nil).Run(ctx); err != nil {
		t.Fatalf("initial Run: %v", err)
	}

	operaLike := track.Features{
		Danceability: 0.2, Energy: 0.15, Loudness: -22, Speechiness: 0.05,
		Acousticness: 0.95, Instrumentalness: 0.05, Liveness: 0.15, Valence: 0.5,
		Tempo: 80, Key: 3, Mode: 1, TimeSignature: 4,
	}
	service := predict.NewService(cfg, nil)
	before, err := service.Predict(ctx, operaLike)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if before.Genre != "Classical" {
		t.Fatalf("expected Classical before retraining, got %q", before.Genre)
	}

	// Relabel opera as metal so a retrain would fit a differently ordered encoder.
	raw, err := os.ReadFile(cfg.Paths.Dataset)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if err := os.WriteFile(cfg.Paths.Dataset, []byte(strings.ReplaceAll(string(raw), "opera", "metal")), 0o644); err != nil {
		t.Fatalf("rewrite dataset: %v", err)
	}

	var calls []string
	boom := faults.Wrap(faults.ErrModel, "training", "fit", "broken", errors.New("boom"))
	retrain := pipeline.NewManager(cfg, nil, pipeline.WithStages(
		ingest.NewIngester(cfg, nil),
		transform.NewTransformer(cfg, nil),
		recordingStage{name: "training", err: boom, calls: &calls},
	))
	if _, err := retrain.Run(ctx); !errors.Is(err, faults.ErrModel) {
		t.Fatalf("expected the training failure to propagate, got %v", err)
	}

	classes, err := service.Classes(ctx)
	if err != nil {
		t.Fatalf("Classes: %v", err)
	}
	if !slices.Equal(classes, testsupport.SyntheticLabels) {
		t.Fatalf("label encoder replaced by a failed run: %v", classes)
	}
	after, err := service.Predict(ctx, operaLike)
	if err != nil {
		t.Fatalf("Predict after failed retrain: %v", err)
	}
	if after.Genre != before.Genre || after.Confidence != before.Confidence {
		t.Fatalf("prediction changed after a failed retrain: %+v -> %+v", before, after)
	}
}

func TestRunRejectsConcurrentTraining(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	holder := flock.New(cfg.LockPath())
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("expected to take the lock, locked=%v err=%v", locked, err)
	}
	t.Cleanup(func() { _ = holder.Unlock() })

	var calls []string
	manager := pipeline.NewManager(cfg, nil, pipeline.WithStages(recordingStage{name: "only", calls: &calls}))
	if _, err := manager.Run(context.Background()); !errors.Is(err, pipeline.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatal("no stage should run while another run holds the lock")
	}
}

func TestHealthListsStagesInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	health := pipeline.NewManager(cfg, nil).Health(context.Background())
	if len(health) != 3 || health[0].Name != "ingestion" || health[1].Name != "transformation" || health[2].Name != "training" {
		t.Fatalf("unexpected health: %+v", health)
	}
	if health[0].Ready {
		t.Fatal("ingestion should be unhealthy without a dataset")
	}
}
