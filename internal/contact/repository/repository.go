package repository

import (
	"context"

	"loyalty-accounts/internal/contact/domain"
)

// EmailRepository defines persistence for email contacts.
type EmailRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Email, error)
	GetByAddress(ctx context.Context, address string) (*domain.Email, error)
	Create(ctx context.Context, e *domain.Email) error
	// Update writes address, verified and modified_at.
	Update(ctx context.Context, e *domain.Email) error
	Delete(ctx context.Context, id string) error
}

// PhoneRepository defines persistence for phone contacts.
type PhoneRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Phone, error)
	GetByNumber(ctx context.Context, number string) (*domain.Phone, error)
	Create(ctx context.Context, p *domain.Phone) error
	// Update writes number, verified and modified_at.
	Update(ctx context.Context, p *domain.Phone) error
	Delete(ctx context.Context, id string) error
}
