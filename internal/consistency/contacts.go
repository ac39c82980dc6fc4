package consistency

import (
	"context"
	"fmt"

	contactdomain "loyalty-accounts/internal/contact/domain"
	otpdomain "loyalty-accounts/internal/otp/domain"
)

// CreateEmailContact registers a standalone, unverified email address.
func (s *Service) CreateEmailContact(ctx context.Context, address string) (*contactdomain.Email, error) {
	var out *contactdomain.Email
	err := s.uow.RunInTx(ctx, func(st Stores) error {
		existing, err := st.Emails().GetByAddress(ctx, address)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateContact
		}
		now := s.now()
		e := &contactdomain.Email{ID: s.newID(), Address: address, CreatedAt: now, ModifiedAt: now}
		if err := st.Emails().Create(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePhoneContact registers a standalone, unverified phone number.
func (s *Service) CreatePhoneContact(ctx context.Context, number string) (*contactdomain.Phone, error) {
	var out *contactdomain.Phone
	err := s.uow.RunInTx(ctx, func(st Stores) error {
		existing, err := st.Phones().GetByNumber(ctx, number)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateContact
		}
		now := s.now()
		p := &contactdomain.Phone{ID: s.newID(), Number: number, CreatedAt: now, ModifiedAt: now}
		if err := st.Phones().Create(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetEmailVerified sets the verified flag and recomputes the linking account's verification status.
func (s *Service) SetEmailVerified(ctx context.Context, emailID string, verified bool) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		return s.setEmailVerified(ctx, st, emailID, verified)
	})
}

func (s *Service) setEmailVerified(ctx context.Context, st Stores, emailID string, verified bool) error {
	e, err := st.Emails().GetByID(ctx, emailID)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("email contact %s: %w", emailID, ErrNotFound)
	}
	if e.Verified == verified {
		return nil
	}
	e.Verified = verified
	e.ModifiedAt = s.now()
	if err := st.Emails().Update(ctx, e); err != nil {
		return err
	}
	return s.recomputeForEmail(ctx, st, emailID)
}

// SetPhoneVerified sets the verified flag and recomputes the linking account's verification status.
func (s *Service) SetPhoneVerified(ctx context.Context, phoneID string, verified bool) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		return s.setPhoneVerified(ctx, st, phoneID, verified)
	})
}

func (s *Service) setPhoneVerified(ctx context.Context, st Stores, phoneID string, verified bool) error {
	p, err := st.Phones().GetByID(ctx, phoneID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("phone contact %s: %w", phoneID, ErrNotFound)
	}
	if p.Verified == verified {
		return nil
	}
	p.Verified = verified
	p.ModifiedAt = s.now()
	if err := st.Phones().Update(ctx, p); err != nil {
		return err
	}
	return s.recomputeForPhone(ctx, st, phoneID)
}

// ChangeEmailAddress replaces the address. The new address is unproven, so the verified flag is
// cleared and pending OTP tokens for the contact are discarded.
func (s *Service) ChangeEmailAddress(ctx context.Context, emailID, address string) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		e, err := st.Emails().GetByID(ctx, emailID)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("email contact %s: %w", emailID, ErrNotFound)
		}
		if e.Address == address {
			return nil
		}
		other, err := st.Emails().GetByAddress(ctx, address)
		if err != nil {
			return err
		}
		if other != nil {
			return ErrDuplicateContact
		}
		e.Address = address
		e.Verified = false
		e.ModifiedAt = s.now()
		if err := st.Emails().Update(ctx, e); err != nil {
			return err
		}
		if _, err := st.OtpTokens().DeleteByTarget(ctx, otpdomain.EmailTarget{EmailContactID: emailID}); err != nil {
			return err
		}
		return s.recomputeForEmail(ctx, st, emailID)
	})
}

// ChangePhoneNumber replaces the number with the same rules as ChangeEmailAddress.
func (s *Service) ChangePhoneNumber(ctx context.Context, phoneID, number string) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		p, err := st.Phones().GetByID(ctx, phoneID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("phone contact %s: %w", phoneID, ErrNotFound)
		}
		if p.Number == number {
			return nil
		}
		other, err := st.Phones().GetByNumber(ctx, number)
		if err != nil {
			return err
		}
		if other != nil {
			return ErrDuplicateContact
		}
		p.Number = number
		p.Verified = false
		p.ModifiedAt = s.now()
		if err := st.Phones().Update(ctx, p); err != nil {
			return err
		}
		if _, err := st.OtpTokens().DeleteByTarget(ctx, otpdomain.PhoneTarget{PhoneContactID: phoneID}); err != nil {
			return err
		}
		return s.recomputeForPhone(ctx, st, phoneID)
	})
}

// DeleteEmailContact unlinks the contact from its profile, drops its OTP tokens and deletes it.
// Fails with *verification.NoContactMethodError if it is the last contact of an account.
func (s *Service) DeleteEmailContact(ctx context.Context, emailID string) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		e, err := st.Emails().GetByID(ctx, emailID)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("email contact %s: %w", emailID, ErrNotFound)
		}
		p, err := st.Profiles().GetByEmailContactID(ctx, emailID)
		if err != nil {
			return err
		}
		if p != nil {
			if err := s.setLinks(ctx, st, p, nil, p.PhoneContactID); err != nil {
				return err
			}
		}
		if _, err := st.OtpTokens().DeleteByTarget(ctx, otpdomain.EmailTarget{EmailContactID: emailID}); err != nil {
			return err
		}
		return st.Emails().Delete(ctx, emailID)
	})
}

// DeletePhoneContact is DeleteEmailContact for phone contacts.
func (s *Service) DeletePhoneContact(ctx context.Context, phoneID string) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		ph, err := st.Phones().GetByID(ctx, phoneID)
		if err != nil {
			return err
		}
		if ph == nil {
			return fmt.Errorf("phone contact %s: %w", phoneID, ErrNotFound)
		}
		p, err := st.Profiles().GetByPhoneContactID(ctx, phoneID)
		if err != nil {
			return err
		}
		if p != nil {
			if err := s.setLinks(ctx, st, p, p.EmailContactID, nil); err != nil {
				return err
			}
		}
		if _, err := st.OtpTokens().DeleteByTarget(ctx, otpdomain.PhoneTarget{PhoneContactID: phoneID}); err != nil {
			return err
		}
		return st.Phones().Delete(ctx, phoneID)
	})
}

func (s *Service) recomputeForEmail(ctx context.Context, st Stores, emailID string) error {
	p, err := st.Profiles().GetByEmailContactID(ctx, emailID)
	if err != nil {
		return err
	}
	_, err = s.recompute(ctx, st, p)
	return err
}

func (s *Service) recomputeForPhone(ctx context.Context, st Stores, phoneID string) error {
	p, err := st.Profiles().GetByPhoneContactID(ctx, phoneID)
	if err != nil {
		return err
	}
	_, err = s.recompute(ctx, st, p)
	return err
}
