//go:build integration

package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("mfs"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := NewPool(ctx, dsn, 5, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func tableExists(t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var ok bool
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT to_regclass($1) IS NOT NULL`, name).Scan(&ok))
	return ok
}

func TestIntegration_RunMigrationsIsIdempotent(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool))

	names, err := PendingMigrations()
	require.NoError(t, err)
	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, len(names), n)
	for _, table := range []string{"accounts", "transactions", "account_requests", "audit_logs"} {
		assert.True(t, tableExists(t, pool, table), table)
	}
}

func TestIntegration_FailedMigrationLeavesNoTrace(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, pool))

	applied, err := apply(ctx, pool, "9999_broken.up.sql",
		`CREATE TABLE half_done (id int); SELECT no_such_function();`)
	require.Error(t, err)
	assert.False(t, applied)
	assert.False(t, tableExists(t, pool, "half_done"))

	var recorded bool
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version='9999_broken.up.sql')`).Scan(&recorded))
	assert.False(t, recorded)

	// a fixed version of the same migration applies cleanly afterwards
	applied, err = apply(ctx, pool, "9999_broken.up.sql", `CREATE TABLE half_done (id int);`)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, tableExists(t, pool, "half_done"))
}

func TestIntegration_ConcurrentMigratorsApplyOnce(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, pool))

	results := make(chan bool, 4)
	for i := 0; i < cap(results); i++ {
		go func() {
			applied, err := apply(ctx, pool, "9998_counter.up.sql", `CREATE TABLE once_only (id int);`)
			assert.NoError(t, err)
			results <- applied
		}()
	}
	var count int
	for i := 0; i < cap(results); i++ {
		if <-results {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
