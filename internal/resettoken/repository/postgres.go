package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"loyalty-accounts/internal/resettoken/domain"
)

// PostgresRepository persists password reset tokens.
type PostgresRepository struct {
	db sqlx.ExtContext
}

// NewPostgresRepository returns a password reset token repository backed by db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the token. The token must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Token) error {
	var usedAt sql.NullTime
	if t.UsedAt != nil {
		usedAt = sql.NullTime{Time: *t.UsedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, account_id, token_value, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.AccountID, t.TokenValue, t.ExpiresAt, usedAt, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create password reset token: %w", err)
	}
	return nil
}

// DeleteByAccount removes every token of the account.
func (r *PostgresRepository) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	return r.exec(ctx, "delete password reset tokens by account", `DELETE FROM password_reset_tokens WHERE account_id = $1`, accountID)
}

// DeleteCreatedBefore removes tokens created strictly before cutoff.
func (r *PostgresRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.exec(ctx, "delete old password reset tokens", `DELETE FROM password_reset_tokens WHERE created_at < $1`, cutoff)
}

func (r *PostgresRepository) exec(ctx context.Context, op, query string, arg any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return n, nil
}
