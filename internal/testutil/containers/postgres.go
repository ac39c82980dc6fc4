//go:build integration

// Package containers starts throwaway infrastructure for integration tests.
package containers

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"loyalty-accounts/internal/db"
	"loyalty-accounts/internal/db/migrate"
)

// PostgresContainer wraps a migrated testcontainers Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sqlx.DB
}

// NewPostgresContainer starts Postgres, applies every migration and opens a pool.
// The container is terminated when the test finishes.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("loyalty"),
		tcpostgres.WithUsername("loyalty"),
		tcpostgres.WithPassword("loyalty"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	if err := migrate.Run(dsn, "up", 0); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("failed to migrate: %v", err)
	}

	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &PostgresContainer{Container: container, DSN: dsn, DB: conn}
}

// Truncate empties every application table. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		TRUNCATE otp_tokens, password_reset_tokens, accounts, customer_profiles,
			email_contacts, phone_contacts, account_status_audit, job_execution_audit, settings
	`)
	return err
}
