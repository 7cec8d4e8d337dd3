package testsupport

import (
	"testing"

	"genrecast/internal/config"
	"genrecast/internal/runlog"
)

// MustOpenRunLog opens the run journal for tests and registers cleanup.
func MustOpenRunLog(t testing.TB, cfg *config.Config) *runlog.Store {
	t.Helper()

	store, err := runlog.Open(cfg)
	if err != nil {
		t.Fatalf("runlog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
