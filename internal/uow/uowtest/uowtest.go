// Package uowtest opens unit of work factories for tests.
package uowtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"market/internal/config"
	"market/internal/repositories"
	"market/internal/uow"
)

// NewSQLiteFactory opens a migrated SQLite database in a temporary
// directory. WAL mode lets idle units hold read transactions while others
// write.
func NewSQLiteFactory(t testing.TB) *uow.GORMFactory {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "market_test.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := uow.OpenDatabase(config.DriverSQLite, dsn, logger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return uow.NewGORMFactory(db)
}

// Each runs fn as a subtest against every store: the memory store and
// SQLite through GORM.
func Each(t *testing.T, fn func(t *testing.T, factory uow.Factory)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, uow.NewMemoryFactory(repositories.NewMemoryStore()))
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewSQLiteFactory(t))
	})
}
