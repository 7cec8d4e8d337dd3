package runlog_test

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"genrecast/internal/config"
	"genrecast/internal/runlog"
	"genrecast/internal/testsupport"
)

// tamper opens the journal behind the store's back and runs stmts.
func tamper(t *testing.T, cfg *config.Config, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", cfg.RunDBPath())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer db.Close()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

func TestOpenRecordsEveryMigration(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunLog(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.RunDBPath())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer db.Close()
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		t.Fatalf("query versions: %v", err)
	}
	defer rows.Close()
	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan: %v", err)
		}
		versions = append(versions, v)
	}
	if strings.Join(versions, ",") != "001_runs,002_runs_dataset" {
		t.Fatalf("unexpected applied migrations: %v", versions)
	}
}

func TestOpenRejectsNewerJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunLog(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	tamper(t, cfg, "INSERT INTO schema_migrations (version) VALUES ('999_future')")

	if _, err := runlog.Open(cfg); !errors.Is(err, runlog.ErrSchemaTooNew) {
		t.Fatalf("expected ErrSchemaTooNew, got %v", err)
	}
}

func TestOpenRejectsRunsTableMissingColumns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	// A journal that claims both migrations but lacks the dataset columns.
	tamper(t, cfg,
		"CREATE TABLE schema_migrations (version TEXT PRIMARY KEY)",
		"INSERT INTO schema_migrations (version) VALUES ('001_runs'), ('002_runs_dataset')",
		`CREATE TABLE runs (id TEXT PRIMARY KEY, status TEXT NOT NULL, stage TEXT NOT NULL DEFAULT '',
			train_rows INTEGER NOT NULL DEFAULT 0, test_rows INTEGER NOT NULL DEFAULT 0, accuracy REAL,
			error_kind TEXT NOT NULL DEFAULT '', error_message TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL, updated_at TEXT NOT NULL, finished_at TEXT)`,
	)

	_, err := runlog.Open(cfg)
	if err == nil {
		t.Fatal("expected error for runs table without dataset columns")
	}
	for _, want := range []string{"dataset_path", "dropped_rows"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not name %s", err, want)
		}
	}
}
