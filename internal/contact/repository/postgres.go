package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"loyalty-accounts/internal/contact/domain"
)

type emailRow struct {
	ID         string    `db:"id"`
	Address    string    `db:"address"`
	Verified   bool      `db:"verified"`
	CreatedAt  time.Time `db:"created_at"`
	ModifiedAt time.Time `db:"modified_at"`
}

type phoneRow struct {
	ID         string    `db:"id"`
	Number     string    `db:"number"`
	Verified   bool      `db:"verified"`
	CreatedAt  time.Time `db:"created_at"`
	ModifiedAt time.Time `db:"modified_at"`
}

// PostgresEmailRepository persists email contacts.
type PostgresEmailRepository struct {
	db sqlx.ExtContext
}

// NewPostgresEmailRepository returns an email contact repository backed by db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresEmailRepository(db sqlx.ExtContext) *PostgresEmailRepository {
	return &PostgresEmailRepository{db: db}
}

// GetByID returns the email contact for id, or nil if not found.
func (r *PostgresEmailRepository) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	return r.getOne(ctx, `SELECT id, address, verified, created_at, modified_at FROM email_contacts WHERE id = $1`, id)
}

// GetByAddress returns the email contact with address, or nil if not found.
func (r *PostgresEmailRepository) GetByAddress(ctx context.Context, address string) (*domain.Email, error) {
	return r.getOne(ctx, `SELECT id, address, verified, created_at, modified_at FROM email_contacts WHERE address = $1`, address)
}

func (r *PostgresEmailRepository) getOne(ctx context.Context, query, arg string) (*domain.Email, error) {
	var row emailRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get email contact: %w", err)
	}
	return &domain.Email{ID: row.ID, Address: row.Address, Verified: row.Verified, CreatedAt: row.CreatedAt, ModifiedAt: row.ModifiedAt}, nil
}

// Create persists the email contact. The contact must have ID set.
func (r *PostgresEmailRepository) Create(ctx context.Context, e *domain.Email) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_contacts (id, address, verified, created_at, modified_at) VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.Address, e.Verified, e.CreatedAt, e.ModifiedAt)
	if err != nil {
		return fmt.Errorf("create email contact: %w", err)
	}
	return nil
}

// Update writes address, verified and modified_at.
func (r *PostgresEmailRepository) Update(ctx context.Context, e *domain.Email) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_contacts SET address = $2, verified = $3, modified_at = $4 WHERE id = $1
	`, e.ID, e.Address, e.Verified, e.ModifiedAt)
	if err != nil {
		return fmt.Errorf("update email contact: %w", err)
	}
	return nil
}

// Delete removes the email contact. OTP tokens targeting it go with it (ON DELETE CASCADE).
func (r *PostgresEmailRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM email_contacts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete email contact: %w", err)
	}
	return nil
}

// PostgresPhoneRepository persists phone contacts.
type PostgresPhoneRepository struct {
	db sqlx.ExtContext
}

// NewPostgresPhoneRepository returns a phone contact repository backed by db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresPhoneRepository(db sqlx.ExtContext) *PostgresPhoneRepository {
	return &PostgresPhoneRepository{db: db}
}

// GetByID returns the phone contact for id, or nil if not found.
func (r *PostgresPhoneRepository) GetByID(ctx context.Context, id string) (*domain.Phone, error) {
	return r.getOne(ctx, `SELECT id, number, verified, created_at, modified_at FROM phone_contacts WHERE id = $1`, id)
}

// GetByNumber returns the phone contact with number, or nil if not found.
func (r *PostgresPhoneRepository) GetByNumber(ctx context.Context, number string) (*domain.Phone, error) {
	return r.getOne(ctx, `SELECT id, number, verified, created_at, modified_at FROM phone_contacts WHERE number = $1`, number)
}

func (r *PostgresPhoneRepository) getOne(ctx context.Context, query, arg string) (*domain.Phone, error) {
	var row phoneRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get phone contact: %w", err)
	}
	return &domain.Phone{ID: row.ID, Number: row.Number, Verified: row.Verified, CreatedAt: row.CreatedAt, ModifiedAt: row.ModifiedAt}, nil
}

// Create persists the phone contact. The contact must have ID set.
func (r *PostgresPhoneRepository) Create(ctx context.Context, p *domain.Phone) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO phone_contacts (id, number, verified, created_at, modified_at) VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Number, p.Verified, p.CreatedAt, p.ModifiedAt)
	if err != nil {
		return fmt.Errorf("create phone contact: %w", err)
	}
	return nil
}

// Update writes number, verified and modified_at.
func (r *PostgresPhoneRepository) Update(ctx context.Context, p *domain.Phone) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE phone_contacts SET number = $2, verified = $3, modified_at = $4 WHERE id = $1
	`, p.ID, p.Number, p.Verified, p.ModifiedAt)
	if err != nil {
		return fmt.Errorf("update phone contact: %w", err)
	}
	return nil
}

// Delete removes the phone contact.
func (r *PostgresPhoneRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM phone_contacts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete phone contact: %w", err)
	}
	return nil
}
