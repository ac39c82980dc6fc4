package repository

import (
	"context"
	"time"

	"loyalty-accounts/internal/account/domain"
)

// Repository defines persistence for accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByCustomerID(ctx context.Context, customerID string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	// UpdateDerived writes username and verification status only.
	UpdateDerived(ctx context.Context, id, username string, status domain.VerificationStatus, at time.Time) error
	UpdateActivityStatus(ctx context.Context, id string, status domain.ActivityStatus, at time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	// ListIdleActive returns up to limit ACTIVE accounts whose non-null last login is before cutoff, oldest first.
	ListIdleActive(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Account, error)
	// ListUnverifiedNeverLoggedIn returns up to limit UNVERIFIED accounts with no login, created before cutoff.
	ListUnverifiedNeverLoggedIn(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Account, error)
}
