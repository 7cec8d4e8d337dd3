package transform_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"genrecast/internal/artifact"
	"genrecast/internal/config"
	"genrecast/internal/dataset"
	"genrecast/internal/faults"
	"genrecast/internal/ingest"
	"genrecast/internal/logging"
	"genrecast/internal/stage"
	"genrecast/internal/testsupport"
	"genrecast/internal/transform"
)

func ingested(t *testing.T, perGenre int) (*stage.Run, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithDataset(perGenre))
	run := &stage.Run{}
	if err := ingest.NewIngester(cfg, logging.NewNop()).Execute(context.Background(), run); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	return run, cfg
}

func TestTransformerProducesMatrices(t *testing.T) {
	run, cfg := ingested(t, 20)

	if err := transform.NewTransformer(cfg, logging.NewNop()).Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !slices.Equal(run.Encoder.Classes(), testsupport.SyntheticLabels) {
		t.Fatalf("classes = %v, want %v", run.Encoder.Classes(), testsupport.SyntheticLabels)
	}
	if run.Dropped != 20 {
		t.Fatalf("expected the 20 Other rows dropped, got %d", run.Dropped)
	}
	trainRows, width := run.XTrain.Dims()
	testRows, testWidth := run.XTest.Dims()
	if trainRows+testRows != 80 {
		t.Fatalf("expected 80 kept rows, got %d + %d", trainRows, testRows)
	}
	if width != run.Preprocessor.Width() || testWidth != width {
		t.Fatalf("matrix widths %d/%d differ from preprocessor width %d", width, testWidth, run.Preprocessor.Width())
	}
	if len(run.YTrain) != trainRows || len(run.YTest) != testRows {
		t.Fatal("label counts do not match matrix rows")
	}

	if !run.Preprocessor.Fitted() {
		t.Fatal("expected a fitted preprocessor on run")
	}
	for _, path := range []string{cfg.PreprocessorPath(), cfg.LabelEncoderPath()} {
		if artifact.Exists(path) {
			t.Fatalf("%s written before the model was trained", path)
		}
	}
}

func TestTransformerRejectsUnseenTestGenre(t *testing.T) {
	run, cfg := ingested(t, 10)

	test, err := dataset.ReadFrame(run.TestPath)
	if err != nil {
		t.Fatalf("read test split: %v", err)
	}
	genreCol := len(test.Header) - 1
	test.Rows[0][genreCol] = "bossanova"
	if err := dataset.WriteFrame(run.TestPath, test); err != nil {
		t.Fatalf("write test split: %v", err)
	}

	err = transform.NewTransformer(cfg, nil).Execute(context.Background(), run)
	if !errors.Is(err, faults.ErrTransform) {
		t.Fatalf("expected ErrTransform, got %v", err)
	}
}

func TestTransformerMissingSplits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	err := transform.NewTransformer(cfg, nil).Execute(context.Background(), &stage.Run{})
	if !errors.Is(err, faults.ErrTransform) {
		t.Fatalf("expected ErrTransform, got %v", err)
	}
}
