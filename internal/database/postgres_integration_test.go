//go:build integration

package database_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/finance-tracker-api/internal/config"
	"github.com/redmonkez12/finance-tracker-api/internal/database"
)

func TestPostgresIntegration(t *testing.T) {
	if testing.Short() || os.Getenv("SKIP_DOCKER") == "1" {
		t.Skip("skipping postgres integration test")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=finance_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	cfg := config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		Host:         "localhost",
		Port:         resource.GetPort("5432/tcp"),
		User:         "test",
		Password:     "test",
		DBName:       "finance_test",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	// migrations fail until postgres accepts connections
	pool.MaxWait = 60 * time.Second
	require.NoError(t, pool.Retry(func() error {
		return database.Migrate(cfg, database.Up)
	}))

	ctx := context.Background()
	db, err := database.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Now().UTC()
	u := &database.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	_, err = db.NewInsert().Model(u).Returning("*").Exec(ctx)
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	dup := &database.User{Username: "alice", Email: "b@example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	_, err = db.NewInsert().Model(dup).Exec(ctx)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))

	e := &database.Entry{UserID: u.ID, Description: "coffee", Amount: decimal.RequireFromString("3.50"), CreatedAt: now, UpdatedAt: now}
	_, err = db.NewInsert().Model(e).ModelTableExpr("expenses").Returning("*").Exec(ctx)
	require.NoError(t, err)

	var got database.Entry
	err = db.NewSelect().Model(&got).ModelTableExpr("expenses AS e").Where("e.id = ?", e.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3.50", got.Amount.StringFixed(2))
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("3.5")))
}
