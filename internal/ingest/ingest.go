// Package ingest implements the data ingestion stage: it samples the raw
// dataset and writes the train and test splits.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"

	"genrecast/internal/config"
	"genrecast/internal/dataset"
	"genrecast/internal/faults"
	"genrecast/internal/logging"
	"genrecast/internal/stage"
)

const stageName = "ingestion"

// Ingester reads the raw dataset and writes train.csv and test.csv.
type Ingester struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewIngester constructs the ingestion stage.
func NewIngester(cfg *config.Config, logger *slog.Logger) *Ingester {
	i := &Ingester{cfg: cfg}
	i.SetLogger(logger)
	return i
}

// SetLogger swaps the stage logger.
func (i *Ingester) SetLogger(logger *slog.Logger) {
	i.logger = logging.NewComponentLogger(logger, stageName)
}

// Name implements stage.Handler.
func (i *Ingester) Name() string { return stageName }

// HealthCheck verifies the raw dataset is readable.
func (i *Ingester) HealthCheck(context.Context) stage.Health {
	info, err := os.Stat(i.cfg.Paths.Dataset)
	if err != nil {
		return stage.Unhealthy(stageName, fmt.Sprintf("dataset %s: %v", i.cfg.Paths.Dataset, err))
	}
	if info.IsDir() {
		return stage.Unhealthy(stageName, fmt.Sprintf("dataset %s is a directory", i.cfg.Paths.Dataset))
	}
	return stage.Healthy(stageName)
}

// Execute samples and splits the dataset, recording the split paths on run.
func (i *Ingester) Execute(ctx context.Context, run *stage.Run) error {
	i.logger.Info("reading dataset", logging.String("path", i.cfg.Paths.Dataset))
	frame, err := dataset.ReadFrame(i.cfg.Paths.Dataset)
	if err != nil {
		return faults.Wrap(faults.ErrIngestion, stageName, "read dataset", "Unable to read the raw dataset", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sampled, err := Sample(frame, i.cfg.Ingestion.SampleSize, i.cfg.Ingestion.Seed)
	if err != nil {
		return faults.Wrap(faults.ErrIngestion, stageName, "sample", "Dataset too small for the configured sample size", err)
	}
	train, test, err := Split(sampled, i.cfg.Ingestion.TestRatio, i.cfg.Ingestion.Seed)
	if err != nil {
		return faults.Wrap(faults.ErrIngestion, stageName, "split", "Unable to split dataset", err)
	}

	run.TrainPath = i.cfg.TrainCSVPath()
	run.TestPath = i.cfg.TestCSVPath()
	if err := dataset.WriteFrame(run.TrainPath, train); err != nil {
		return faults.Wrap(faults.ErrIngestion, stageName, "write train split", "Unable to write train split", err)
	}
	if err := dataset.WriteFrame(run.TestPath, test); err != nil {
		return faults.Wrap(faults.ErrIngestion, stageName, "write test split", "Unable to write test split", err)
	}
	run.TrainRows = train.Len()
	run.TestRows = test.Len()

	i.logger.Info("dataset split written",
		logging.Int("source_rows", frame.Len()),
		logging.Int("sampled_rows", sampled.Len()),
		logging.Int("train_rows", run.TrainRows),
		logging.Int("test_rows", run.TestRows),
		logging.String("train_path", run.TrainPath),
		logging.String("test_path", run.TestPath),
	)
	return nil
}

// Sample draws size rows without replacement using a seeded permutation.
// A size of zero keeps every row in its original order.
func Sample(frame *dataset.Frame, size int, seed uint64) (*dataset.Frame, error) {
	if size == 0 {
		return frame, nil
	}
	if size < 0 {
		return nil, fmt.Errorf("sample size %d must not be negative", size)
	}
	if frame.Len() < size {
		return nil, fmt.Errorf("dataset has %d rows, fewer than sample size %d", frame.Len(), size)
	}
	rng := rand.New(rand.NewPCG(seed, 0))
	perm := rng.Perm(frame.Len())
	return frame.Subset(perm[:size]), nil
}

// Split shuffles rows with seed and assigns ceil(ratio*n) of them to the
// test frame and the rest to the train frame.
func Split(frame *dataset.Frame, ratio float64, seed uint64) (*dataset.Frame, *dataset.Frame, error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("test ratio %v must be between 0 and 1", ratio)
	}
	n := frame.Len()
	testSize := int(math.Ceil(ratio * float64(n)))
	if n < 2 || testSize >= n {
		return nil, nil, fmt.Errorf("cannot split %d rows with test ratio %v", n, ratio)
	}
	rng := rand.New(rand.NewPCG(seed, 1))
	perm := rng.Perm(n)
	return frame.Subset(perm[testSize:]), frame.Subset(perm[:testSize]), nil
}
