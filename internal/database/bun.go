package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/redmonkez12/finance-tracker-api/internal/config"
)

// Open connects to the configured database, verifies the connection and wraps it in Bun.
// The returned pool is shared by every repository and must be closed by the caller.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	driverName, dsn, err := driverAndDSN(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite allows one writer; a single connection serializes access instead of failing with SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	return NewBunDB(sqlDB, cfg.Driver), nil
}

// NewBunDB creates a new Bun DB instance from an existing sql.DB connection
func NewBunDB(sqlDB *sql.DB, driver string) *bun.DB {
	if driver == config.DriverSQLite {
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
	return bun.NewDB(sqlDB, pgdialect.New())
}

func driverAndDSN(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return "postgres", cfg.ConnectionString(), nil
	case config.DriverSQLite:
		return "sqlite", cfg.SQLiteDSN(), nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
