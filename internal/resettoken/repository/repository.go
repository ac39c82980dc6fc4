package repository

import (
	"context"
	"time"

	"loyalty-accounts/internal/resettoken/domain"
)

// Repository defines persistence for password reset tokens.
type Repository interface {
	Create(ctx context.Context, t *domain.Token) error
	DeleteByAccount(ctx context.Context, accountID string) (int64, error)
	// DeleteCreatedBefore removes tokens created strictly before cutoff, used or not.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
