package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"loyalty-accounts/internal/customer/domain"
)

const profileColumns = `id, first_name, last_name, email_contact_id, phone_contact_id, created_at, modified_at`

type profileRow struct {
	ID             string         `db:"id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	EmailContactID sql.NullString `db:"email_contact_id"`
	PhoneContactID sql.NullString `db:"phone_contact_id"`
	CreatedAt      time.Time      `db:"created_at"`
	ModifiedAt     time.Time      `db:"modified_at"`
}

type PostgresRepository struct {
	db sqlx.ExtContext
}

// NewPostgresRepository returns a profile repository backed by db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the profile for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM customer_profiles WHERE id = $1`, id)
}

// GetByEmailContactID returns the profile linking emailID, or nil.
func (r *PostgresRepository) GetByEmailContactID(ctx context.Context, emailID string) (*domain.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM customer_profiles WHERE email_contact_id = $1`, emailID)
}

// GetByPhoneContactID returns the profile linking phoneID, or nil.
func (r *PostgresRepository) GetByPhoneContactID(ctx context.Context, phoneID string) (*domain.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM customer_profiles WHERE phone_contact_id = $1`, phoneID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*domain.Profile, error) {
	var row profileRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer profile: %w", err)
	}
	return rowToProfile(&row), nil
}

// Create persists the profile. The profile must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customer_profiles (`+profileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.FirstName, p.LastName, nullString(p.EmailContactID), nullString(p.PhoneContactID), p.CreatedAt, p.ModifiedAt)
	if err != nil {
		return fmt.Errorf("create customer profile: %w", err)
	}
	return nil
}

// Update writes names, both links and modified_at.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE customer_profiles
		SET first_name = $2, last_name = $3, email_contact_id = $4, phone_contact_id = $5, modified_at = $6
		WHERE id = $1
	`, p.ID, p.FirstName, p.LastName, nullString(p.EmailContactID), nullString(p.PhoneContactID), p.ModifiedAt)
	if err != nil {
		return fmt.Errorf("update customer profile: %w", err)
	}
	return nil
}

// Delete removes the profile.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM customer_profiles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete customer profile: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptrFromNullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func rowToProfile(r *profileRow) *domain.Profile {
	return &domain.Profile{
		ID:             r.ID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		EmailContactID: ptrFromNullString(r.EmailContactID),
		PhoneContactID: ptrFromNullString(r.PhoneContactID),
		CreatedAt:      r.CreatedAt,
		ModifiedAt:     r.ModifiedAt,
	}
}
