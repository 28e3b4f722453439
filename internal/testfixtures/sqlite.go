package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/labor-tracker/internal/persistence"
	"github.com/example/labor-tracker/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Records persistence.TimeRecordRepository
	Users   *sqlite.UserRepository
	Budgets persistence.BudgetRepository
	Audit   persistence.AuditRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "labortracker.db")

	pool, err := sqlite.NewConnectionPool("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Records: sqlite.NewTimeRecordRepository(pool),
		Users:   sqlite.NewUserRepository(pool),
		Budgets: sqlite.NewBudgetRepository(pool),
		Audit:   sqlite.NewAuditRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
