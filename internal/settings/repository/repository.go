package repository

import (
	"context"

	"loyalty-accounts/internal/settings/domain"
)

// Repository defines persistence for runtime settings.
type Repository interface {
	// List returns every setting ordered by key.
	List(ctx context.Context) ([]*domain.Setting, error)
	// Get returns the setting for key, or nil if not found.
	Get(ctx context.Context, key string) (*domain.Setting, error)
	// Upsert creates or replaces the setting.
	Upsert(ctx context.Context, s *domain.Setting) error
	// InsertIfMissing creates the setting only when the key is absent. Reports whether a row was inserted.
	InsertIfMissing(ctx context.Context, s *domain.Setting) (bool, error)
	// Delete removes the setting for key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}
