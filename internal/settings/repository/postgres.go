package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"loyalty-accounts/internal/settings/domain"
)

type settingRow struct {
	Key         string `db:"key"`
	Value       string `db:"value"`
	Description string `db:"description"`
}

type PostgresRepository struct {
	db sqlx.ExtContext
}

// NewPostgresRepository returns a settings repository backed by db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns every setting ordered by key.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Setting, error) {
	var rows []settingRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, `SELECT key, value, description FROM settings ORDER BY key`); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make([]*domain.Setting, len(rows))
	for i := range rows {
		out[i] = rowToSetting(&rows[i])
	}
	return out, nil
}

// Get returns the setting for key, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, key string) (*domain.Setting, error) {
	var row settingRow
	err := sqlx.GetContext(ctx, r.db, &row, `SELECT key, value, description FROM settings WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	return rowToSetting(&row), nil
}

// Upsert creates or replaces the setting.
func (r *PostgresRepository) Upsert(ctx context.Context, s *domain.Setting) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, description = EXCLUDED.description
	`, s.Key, s.Value, s.Description)
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", s.Key, err)
	}
	return nil
}

// InsertIfMissing creates the setting only when the key is absent, leaving operator edits untouched.
func (r *PostgresRepository) InsertIfMissing(ctx context.Context, s *domain.Setting) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING
	`, s.Key, s.Value, s.Description)
	if err != nil {
		return false, fmt.Errorf("insert setting %s: %w", s.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert setting %s rows affected: %w", s.Key, err)
	}
	return n > 0, nil
}

// Delete removes the setting for key.
func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}

func rowToSetting(r *settingRow) *domain.Setting {
	return &domain.Setting{Key: r.Key, Value: r.Value, Description: r.Description}
}
