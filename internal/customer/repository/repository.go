package repository

import (
	"context"

	"loyalty-accounts/internal/customer/domain"
)

// Repository defines persistence for customer profiles.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	// GetByEmailContactID returns the profile linking the email contact, or nil.
	GetByEmailContactID(ctx context.Context, emailID string) (*domain.Profile, error)
	// GetByPhoneContactID returns the profile linking the phone contact, or nil.
	GetByPhoneContactID(ctx context.Context, phoneID string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
	// Update writes names, both links and modified_at.
	Update(ctx context.Context, p *domain.Profile) error
	Delete(ctx context.Context, id string) error
}
