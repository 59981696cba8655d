// Package databasetest provides migrated SQLite databases for tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/finance-tracker-api/internal/config"
	"github.com/redmonkez12/finance-tracker-api/internal/database"
)

// Config returns a SQLite configuration backed by a file in t.TempDir()
func Config(t testing.TB) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "finance_test.db"),
	}
}

// New opens a fresh, fully migrated SQLite database that is closed on test cleanup
func New(t testing.TB) *bun.DB {
	t.Helper()

	cfg := Config(t)
	require.NoError(t, database.Migrate(cfg, database.Up), "failed to migrate test database")

	db, err := database.Open(context.Background(), cfg)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { db.Close() })

	return db
}
