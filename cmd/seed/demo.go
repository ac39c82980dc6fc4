package main

import (
	"context"

	accountdomain "loyalty-accounts/internal/account/domain"
	"loyalty-accounts/internal/consistency"
	"loyalty-accounts/internal/security"
)

const (
	demoEmail     = "demo@example.com"
	demoPhone     = "+15550100"
	demoPassword  = "password123"
	demoFirstName = "Demo"
	demoLastName  = "Customer"
)

// seedDemo creates a customer with a verified email and an unverified phone, then opens its
// account. It returns nil when the demo email already exists.
func seedDemo(ctx context.Context, stores consistency.Stores, svc *consistency.Service, hasher *security.PasswordHasher) (*accountdomain.Account, error) {
	existing, err := stores.Emails().GetByAddress(ctx, demoEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	email, err := svc.CreateEmailContact(ctx, demoEmail)
	if err != nil {
		return nil, err
	}
	phone, err := svc.CreatePhoneContact(ctx, demoPhone)
	if err != nil {
		return nil, err
	}
	profile, err := svc.CreateProfile(ctx, demoFirstName, demoLastName, &email.ID, &phone.ID)
	if err != nil {
		return nil, err
	}
	if err := svc.SetEmailVerified(ctx, email.ID, true); err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(demoPassword)
	if err != nil {
		return nil, err
	}
	return svc.CreateAccount(ctx, profile.ID, hash)
}
