package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"genrecast/internal/config"
	"genrecast/internal/faults"
	"genrecast/internal/ingest"
	"genrecast/internal/logging"
	"genrecast/internal/runlog"
	"genrecast/internal/stage"
	"genrecast/internal/train"
	"genrecast/internal/transform"
)

// ErrBusy reports that another training run holds the artifacts lock.
var ErrBusy = errors.New("another training run is in progress")

// Journal is the subset of the run journal the manager writes to.
type Journal interface {
	Begin(ctx context.Context, id, datasetPath string) error
	SetStage(ctx context.Context, id, stage string) error
	Complete(ctx context.Context, id string, result runlog.Result) error
	Fail(ctx context.Context, id, stage, kind, message string) error
}

// Manager executes the training stages in order.
type Manager struct {
	cfg     *config.Config
	base    *slog.Logger
	logger  *slog.Logger
	journal Journal
	stages  []stage.Handler
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithJournal mirrors run progress into j.
func WithJournal(j Journal) ManagerOption {
	return func(m *Manager) {
		m.journal = j
	}
}

// WithStages replaces the default stage list.
func WithStages(stages ...stage.Handler) ManagerOption {
	return func(m *Manager) {
		m.stages = stages
	}
}

type loggerAware interface {
	SetLogger(*slog.Logger)
}

// NewManager constructs a manager running ingestion, transformation and
// training.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:    cfg,
		base:   logger,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		stages: []stage.Handler{
			ingest.NewIngester(cfg, logger),
			transform.NewTransformer(cfg, logger),
			train.NewTrainer(cfg, logger),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Health returns the health of every stage in execution order.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(m.stages))
	for _, h := range m.stages {
		out = append(out, h.HealthCheck(ctx))
	}
	return out
}

// Run executes one training run. The returned Run is populated as far as
// the stages got, even on failure.
func (m *Manager) Run(ctx context.Context) (*stage.Run, error) {
	if err := m.cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	lock := flock.New(m.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire training lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock %s)", ErrBusy, m.cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("release training lock failed", logging.Error(err))
		}
	}()

	run := &stage.Run{ID: uuid.NewString(), Started: time.Now()}
	logger := m.logger.With(logging.String(logging.FieldRunID, run.ID))
	m.journalDo(logger, "begin", func(j Journal) error {
		return j.Begin(ctx, run.ID, m.cfg.Paths.Dataset)
	})
	logger.Info("training run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("dataset", m.cfg.Paths.Dataset),
		logging.String("artifacts_dir", m.cfg.Paths.ArtifactsDir),
	)

	if err := m.preflight(ctx, logger); err != nil {
		m.handleStageFailure(ctx, logger, run, "preflight", err)
		return run, err
	}

	stageBase := m.base.With(logging.String(logging.FieldRunID, run.ID))
	for _, handler := range m.stages {
		if err := m.executeStage(ctx, logger, stageBase, run, handler); err != nil {
			return run, err
		}
	}

	m.journalDo(logger, "complete", func(j Journal) error {
		return j.Complete(context.WithoutCancel(ctx), run.ID, runlog.Result{
			TrainRows:   run.TrainRows,
			TestRows:    run.TestRows,
			DroppedRows: run.Dropped,
			Accuracy:    run.Accuracy,
		})
	})
	logger.Info("training run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Float64("accuracy", run.Accuracy),
		logging.Duration("run_duration", time.Since(run.Started)),
	)
	return run, nil
}

func (m *Manager) preflight(ctx context.Context, logger *slog.Logger) error {
	var failures []string
	for _, health := range m.Health(ctx) {
		if health.Ready {
			logger.Debug("stage ready", logging.String(logging.FieldStage, health.Name))
			continue
		}
		logger.Error("stage not ready",
			logging.String(logging.FieldStage, health.Name),
			logging.String("detail", health.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
		)
		failures = append(failures, fmt.Sprintf("%s: %s", health.Name, health.Detail))
	}
	if len(failures) == 0 {
		return nil
	}
	return faults.Wrap(faults.ErrIngestion, "preflight", "health check", "Pipeline prerequisites not met",
		errors.New(strings.Join(failures, "; ")))
}

func (m *Manager) executeStage(ctx context.Context, logger, stageBase *slog.Logger, run *stage.Run, handler stage.Handler) error {
	name := handler.Name()
	stageLogger := logger.With(logging.String(logging.FieldStage, name))
	if aware, ok := handler.(loggerAware); ok {
		aware.SetLogger(stageBase.With(logging.String(logging.FieldStage, name)))
	}
	m.journalDo(stageLogger, "set stage", func(j Journal) error {
		return j.SetStage(ctx, run.ID, name)
	})

	stageStart := time.Now()
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := ctx.Err(); err != nil {
		m.handleStageFailure(ctx, stageLogger, run, name, err)
		return err
	}
	if err := handler.Execute(ctx, run); err != nil {
		m.handleStageFailure(ctx, stageLogger, run, name, err)
		return err
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, run *stage.Run, stageName string, stageErr error) {
	kind := faults.KindName(stageErr)
	if errors.Is(stageErr, context.Canceled) || errors.Is(stageErr, context.DeadlineExceeded) {
		kind = "canceled"
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldErrorKind, kind),
		logging.Duration("run_duration", time.Since(run.Started)),
	}
	message := stageErr.Error()
	if details, ok := faults.Details(stageErr); ok {
		attrs = append(attrs, logging.String(logging.FieldErrorLocation, details.Location))
		if details.Message != "" {
			message = details.Message
		}
		if details.Cause != nil {
			attrs = append(attrs, logging.Error(details.Cause))
		}
	} else {
		attrs = append(attrs, logging.Error(stageErr))
	}
	logger.Error("stage failed", logging.Args(attrs...)...)

	m.journalDo(logger, "fail", func(j Journal) error {
		return j.Fail(context.WithoutCancel(ctx), run.ID, stageName, kind, message)
	})
}

// journalDo applies op when a journal is configured. Journal failures are
// logged but never abort training.
func (m *Manager) journalDo(logger *slog.Logger, action string, op func(Journal) error) {
	if m.journal == nil {
		return
	}
	if err := op(m.journal); err != nil {
		logger.Warn("run journal update failed", logging.String("action", action), logging.Error(err))
	}
}
