package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"loyalty-accounts/internal/otp/domain"
)

const tokenColumns = `id, email_contact_id, phone_contact_id, code_hash, purpose, delivery_method,
	expires_at, used_at, attempts_count, max_attempts, created_at`

type tokenRow struct {
	ID             string         `db:"id"`
	EmailContactID sql.NullString `db:"email_contact_id"`
	PhoneContactID sql.NullString `db:"phone_contact_id"`
	CodeHash       string         `db:"code_hash"`
	Purpose        string         `db:"purpose"`
	DeliveryMethod string         `db:"delivery_method"`
	ExpiresAt      time.Time      `db:"expires_at"`
	UsedAt         sql.NullTime   `db:"used_at"`
	AttemptsCount  int            `db:"attempts_count"`
	MaxAttempts    int            `db:"max_attempts"`
	CreatedAt      time.Time      `db:"created_at"`
}

// ErrUnknownTarget is returned when a token carries a target kind the store cannot persist.
var ErrUnknownTarget = errors.New("otp token target must be an email or phone contact")

type PostgresRepository struct {
	db sqlx.ExtContext
}

// NewPostgresRepository returns an OTP token repository backed by db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the token for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	var row tokenRow
	if err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+tokenColumns+` FROM otp_tokens WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get otp token: %w", err)
	}
	return rowToToken(&row)
}

// Create persists the token. The token must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Token) error {
	emailID, phoneID, err := targetColumns(t.Target)
	if err != nil {
		return err
	}
	var usedAt sql.NullTime
	if t.UsedAt != nil {
		usedAt = sql.NullTime{Time: *t.UsedAt, Valid: true}
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO otp_tokens (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, t.ID, emailID, phoneID, t.CodeHash, string(t.Purpose), string(t.DeliveryMethod),
		t.ExpiresAt, usedAt, t.AttemptsCount, t.MaxAttempts, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create otp token: %w", err)
	}
	return nil
}

// Update writes used_at and attempts_count.
func (r *PostgresRepository) Update(ctx context.Context, t *domain.Token) error {
	var usedAt sql.NullTime
	if t.UsedAt != nil {
		usedAt = sql.NullTime{Time: *t.UsedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE otp_tokens SET used_at = $2, attempts_count = $3 WHERE id = $1
	`, t.ID, usedAt, t.AttemptsCount)
	if err != nil {
		return fmt.Errorf("update otp token: %w", err)
	}
	return nil
}

// DeleteByTarget removes every token issued for the target contact.
func (r *PostgresRepository) DeleteByTarget(ctx context.Context, target domain.Target) (int64, error) {
	var query string
	switch target.(type) {
	case domain.EmailTarget:
		query = `DELETE FROM otp_tokens WHERE email_contact_id = $1`
	case domain.PhoneTarget:
		query = `DELETE FROM otp_tokens WHERE phone_contact_id = $1`
	default:
		return 0, ErrUnknownTarget
	}
	return r.exec(ctx, "delete otp tokens by target", query, target.ContactID())
}

// DeleteCreatedBefore removes tokens created strictly before cutoff, used or not.
func (r *PostgresRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.exec(ctx, "delete old otp tokens", `DELETE FROM otp_tokens WHERE created_at < $1`, cutoff)
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

func targetColumns(target domain.Target) (sql.NullString, sql.NullString, error) {
	switch t := target.(type) {
	case domain.EmailTarget:
		return sql.NullString{String: t.EmailContactID, Valid: true}, sql.NullString{}, nil
	case domain.PhoneTarget:
		return sql.NullString{}, sql.NullString{String: t.PhoneContactID, Valid: true}, nil
	default:
		return sql.NullString{}, sql.NullString{}, ErrUnknownTarget
	}
}

func rowToToken(r *tokenRow) (*domain.Token, error) {
	var target domain.Target
	switch {
	case r.EmailContactID.Valid && !r.PhoneContactID.Valid:
		target = domain.EmailTarget{EmailContactID: r.EmailContactID.String}
	case r.PhoneContactID.Valid && !r.EmailContactID.Valid:
		target = domain.PhoneTarget{PhoneContactID: r.PhoneContactID.String}
	default:
		return nil, fmt.Errorf("otp token %s: %w", r.ID, ErrUnknownTarget)
	}
	t := &domain.Token{
		ID:             r.ID,
		Target:         target,
		CodeHash:       r.CodeHash,
		Purpose:        domain.Purpose(r.Purpose),
		DeliveryMethod: domain.DeliveryMethod(r.DeliveryMethod),
		ExpiresAt:      r.ExpiresAt,
		AttemptsCount:  r.AttemptsCount,
		MaxAttempts:    r.MaxAttempts,
		CreatedAt:      r.CreatedAt,
	}
	if r.UsedAt.Valid {
		u := r.UsedAt.Time
		t.UsedAt = &u
	}
	return t, nil
}
