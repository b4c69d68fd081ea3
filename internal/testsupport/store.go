package testsupport

import (
	"context"
	"testing"

	"zenstudio/internal/config"
	"zenstudio/internal/persist/sqlite"
)

// MustOpenSQLite opens the state database for cfg and registers cleanup.
func MustOpenSQLite(t testing.TB, cfg *config.Config) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(context.Background(), cfg.DatabasePath(), nil)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store
}
