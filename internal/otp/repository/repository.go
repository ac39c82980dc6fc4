package repository

import (
	"context"
	"time"

	"loyalty-accounts/internal/otp/domain"
)

// Repository defines persistence for OTP tokens.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Token, error)
	Create(ctx context.Context, t *domain.Token) error
	// Update writes used_at and attempts_count; code, target and purpose never change.
	Update(ctx context.Context, t *domain.Token) error
	// DeleteByTarget removes every token issued for the target contact.
	DeleteByTarget(ctx context.Context, target domain.Target) (int64, error)
	// DeleteCreatedBefore removes tokens created strictly before cutoff.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
