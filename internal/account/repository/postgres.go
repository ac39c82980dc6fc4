package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"loyalty-accounts/internal/account/domain"
)

const accountColumns = `id, customer_id, username, password_hash, activity_status, verification_status,
	last_login_at, created_at, modified_at`

type accountRow struct {
	ID                 string       `db:"id"`
	CustomerID         string       `db:"customer_id"`
	Username           string       `db:"username"`
	PasswordHash       string       `db:"password_hash"`
	ActivityStatus     string       `db:"activity_status"`
	VerificationStatus string       `db:"verification_status"`
	LastLoginAt        sql.NullTime `db:"last_login_at"`
	CreatedAt          time.Time    `db:"created_at"`
	ModifiedAt         time.Time    `db:"modified_at"`
}

type PostgresRepository struct {
	db sqlx.ExtContext
}

// NewPostgresRepository returns an account repository backed by db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByCustomerID returns the account owned by customerID, or nil if none exists.
func (r *PostgresRepository) GetByCustomerID(ctx context.Context, customerID string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE customer_id = $1`, customerID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var row accountRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return rowToAccount(&row), nil
}

// Create persists the account. The account must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.CustomerID, a.Username, a.PasswordHash, string(a.ActivityStatus), string(a.VerificationStatus),
		nullTime(a.LastLoginAt), a.CreatedAt, a.ModifiedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// UpdateDerived writes username and verification status for the account.
func (r *PostgresRepository) UpdateDerived(ctx context.Context, id, username string, status domain.VerificationStatus, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET username = $2, verification_status = $3, modified_at = $4 WHERE id = $1
	`, id, username, string(status), at)
	if err != nil {
		return fmt.Errorf("update account derived fields: %w", err)
	}
	return nil
}

// UpdateActivityStatus writes the activity status only; auditing is the caller's job.
func (r *PostgresRepository) UpdateActivityStatus(ctx context.Context, id string, status domain.ActivityStatus, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET activity_status = $2, modified_at = $3 WHERE id = $1
	`, id, string(status), at)
	if err != nil {
		return fmt.Errorf("update account activity status: %w", err)
	}
	return nil
}

// UpdateLastLogin sets last_login_at.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET last_login_at = $2, modified_at = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("update account last login: %w", err)
	}
	return nil
}

// Delete removes the account. Password reset tokens go with it (ON DELETE CASCADE).
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// ListIdleActive locks and returns up to limit idle ACTIVE accounts. Rows locked by another
// transaction are skipped so overlapping runs do not block each other.
func (r *PostgresRepository) ListIdleActive(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Account, error) {
	return r.list(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE activity_status = 'ACTIVE' AND last_login_at IS NOT NULL AND last_login_at < $1
		ORDER BY last_login_at, id
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, cutoff, limit)
}

// ListUnverifiedNeverLoggedIn locks and returns up to limit reapable accounts.
func (r *PostgresRepository) ListUnverifiedNeverLoggedIn(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Account, error) {
	return r.list(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE verification_status = 'UNVERIFIED' AND last_login_at IS NULL AND created_at < $1
		ORDER BY created_at, id
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, cutoff, limit)
}

func (r *PostgresRepository) list(ctx context.Context, query string, cutoff time.Time, limit int) ([]*domain.Account, error) {
	var rows []accountRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]*domain.Account, len(rows))
	for i := range rows {
		out[i] = rowToAccount(&rows[i])
	}
	return out, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func rowToAccount(r *accountRow) *domain.Account {
	a := &domain.Account{
		ID:                 r.ID,
		CustomerID:         r.CustomerID,
		Username:           r.Username,
		PasswordHash:       r.PasswordHash,
		ActivityStatus:     domain.ActivityStatus(r.ActivityStatus),
		VerificationStatus: domain.VerificationStatus(r.VerificationStatus),
		CreatedAt:          r.CreatedAt,
		ModifiedAt:         r.ModifiedAt,
	}
	if r.LastLoginAt.Valid {
		t := r.LastLoginAt.Time
		a.LastLoginAt = &t
	}
	return a
}
