package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"genrecast/internal/config"
)

// Status is the lifecycle state of a training run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("run not found")

// Run is one journaled training run.
type Run struct {
	ID           string
	Status       Status
	Stage        string
	DatasetPath  string
	TrainRows    int
	TestRows     int
	DroppedRows  int
	Accuracy     *float64
	ErrorKind    string
	ErrorMessage string
	StartedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   *time.Time
}

// Duration is the elapsed time until the run finished, or until now while
// it is still running.
func (r Run) Duration() time.Duration {
	end := time.Now()
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	return end.Sub(r.StartedAt)
}

// Result captures the outcome of a completed run.
type Result struct {
	TrainRows   int
	TestRows    int
	DroppedRows int
	Accuracy    float64
}

// Store manages the run journal backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the run journal under the log directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.RunDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}

// exec runs a statement that must touch exactly one row.
func (s *Store) exec(ctx context.Context, id, query string, args ...any) error {
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Begin records a new running run.
func (s *Store) Begin(ctx context.Context, id, datasetPath string) error {
	ts := now()
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (id, status, dataset_path, started_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			id, StatusRunning, datasetPath, ts, ts)
		return err
	})
}

// SetStage records the stage a running run has entered.
func (s *Store) SetStage(ctx context.Context, id, stage string) error {
	return s.exec(ctx, id, `UPDATE runs SET stage = ?, updated_at = ? WHERE id = ?`, stage, now(), id)
}

// Complete closes a run successfully.
func (s *Store) Complete(ctx context.Context, id string, result Result) error {
	ts := now()
	return s.exec(ctx, id,
		`UPDATE runs SET status = ?, train_rows = ?, test_rows = ?, dropped_rows = ?, accuracy = ?,
		 updated_at = ?, finished_at = ? WHERE id = ?`,
		StatusCompleted, result.TrainRows, result.TestRows, result.DroppedRows, result.Accuracy, ts, ts, id)
}

// Fail closes a run with the stage, error kind and message that stopped it.
func (s *Store) Fail(ctx context.Context, id, stage, kind, message string) error {
	ts := now()
	return s.exec(ctx, id,
		`UPDATE runs SET status = ?, stage = ?, error_kind = ?, error_message = ?, updated_at = ?, finished_at = ? WHERE id = ?`,
		StatusFailed, stage, kind, message, ts, ts, id)
}

const selectColumns = `id, status, stage, dataset_path, train_rows, test_rows, dropped_rows, accuracy,
	error_kind, error_message, started_at, updated_at, finished_at`

// Get returns a single run.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// List returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + selectColumns + ` FROM runs ORDER BY rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run                  Run
		status               string
		accuracy             sql.NullFloat64
		startedAt, updatedAt string
		finishedAt           sql.NullString
	)
	if err := row.Scan(&run.ID, &status, &run.Stage, &run.DatasetPath, &run.TrainRows, &run.TestRows,
		&run.DroppedRows, &accuracy, &run.ErrorKind, &run.ErrorMessage, &startedAt, &updatedAt, &finishedAt); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	if accuracy.Valid {
		v := accuracy.Float64
		run.Accuracy = &v
	}
	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if run.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if finishedAt.Valid && finishedAt.String != "" {
		ts, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &ts
	}
	return &run, nil
}
