package consistency

import (
	"context"
	"fmt"

	customerdomain "loyalty-accounts/internal/customer/domain"
	"loyalty-accounts/internal/verification"
)

// CreateProfile creates a customer profile, optionally linking existing contacts.
func (s *Service) CreateProfile(ctx context.Context, firstName, lastName string, emailID, phoneID *string) (*customerdomain.Profile, error) {
	var out *customerdomain.Profile
	err := s.uow.RunInTx(ctx, func(st Stores) error {
		if emailID != nil {
			if err := s.checkEmailLinkable(ctx, st, "", *emailID); err != nil {
				return err
			}
		}
		if phoneID != nil {
			if err := s.checkPhoneLinkable(ctx, st, "", *phoneID); err != nil {
				return err
			}
		}
		now := s.now()
		p := &customerdomain.Profile{
			ID:             s.newID(),
			FirstName:      firstName,
			LastName:       lastName,
			EmailContactID: copyString(emailID),
			PhoneContactID: copyString(phoneID),
			CreatedAt:      now,
			ModifiedAt:     now,
		}
		if err := st.Profiles().Create(ctx, p); err != nil {
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

// LinkEmail links (or swaps) the profile's email contact and recomputes its account.
func (s *Service) LinkEmail(ctx context.Context, profileID, emailID string) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		p, err := s.getProfile(ctx, st, profileID)
		if err != nil {
			return err
		}
		if err := s.checkEmailLinkable(ctx, st, p.ID, emailID); err != nil {
			return err
		}
		return s.setLinks(ctx, st, p, &emailID, p.PhoneContactID)
	})
}

// UnlinkEmail removes the profile's email link. The contact itself is kept.
func (s *Service) UnlinkEmail(ctx context.Context, profileID string) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		p, err := s.getProfile(ctx, st, profileID)
		if err != nil {
			return err
		}
		if p.EmailContactID == nil {
			return nil
		}
		return s.setLinks(ctx, st, p, nil, p.PhoneContactID)
	})
}

// LinkPhone links (or swaps) the profile's phone contact and recomputes its account.
func (s *Service) LinkPhone(ctx context.Context, profileID, phoneID string) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		p, err := s.getProfile(ctx, st, profileID)
		if err != nil {
			return err
		}
		if err := s.checkPhoneLinkable(ctx, st, p.ID, phoneID); err != nil {
			return err
		}
		return s.setLinks(ctx, st, p, p.EmailContactID, &phoneID)
	})
}

// UnlinkPhone removes the profile's phone link. The contact itself is kept.
func (s *Service) UnlinkPhone(ctx context.Context, profileID string) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		p, err := s.getProfile(ctx, st, profileID)
		if err != nil {
			return err
		}
		if p.PhoneContactID == nil {
			return nil
		}
		return s.setLinks(ctx, st, p, p.EmailContactID, nil)
	})
}

// setLinks writes the profile's links and recomputes its account. A profile that owns an
// account must keep at least one link.
func (s *Service) setLinks(ctx context.Context, st Stores, p *customerdomain.Profile, emailID, phoneID *string) error {
	if emailID == nil && phoneID == nil {
		acc, err := st.Accounts().GetByCustomerID(ctx, p.ID)
		if err != nil {
			return err
		}
		if acc != nil {
			return &verification.NoContactMethodError{CustomerID: p.ID}
		}
	}
	p.EmailContactID = copyString(emailID)
	p.PhoneContactID = copyString(phoneID)
	p.ModifiedAt = s.now()
	if err := st.Profiles().Update(ctx, p); err != nil {
		return err
	}
	_, err := s.recompute(ctx, st, p)
	return err
}

func (s *Service) getProfile(ctx context.Context, st Stores, profileID string) (*customerdomain.Profile, error) {
	p, err := st.Profiles().GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("customer profile %s: %w", profileID, ErrNotFound)
	}
	return p, nil
}

// checkEmailLinkable verifies the contact exists and no profile other than profileID links it.
func (s *Service) checkEmailLinkable(ctx context.Context, st Stores, profileID, emailID string) error {
	e, err := st.Emails().GetByID(ctx, emailID)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("email contact %s: %w", emailID, ErrNotFound)
	}
	owner, err := st.Profiles().GetByEmailContactID(ctx, emailID)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != profileID {
		return fmt.Errorf("email contact %s: %w", emailID, ErrContactLinked)
	}
	return nil
}

func (s *Service) checkPhoneLinkable(ctx context.Context, st Stores, profileID, phoneID string) error {
	p, err := st.Phones().GetByID(ctx, phoneID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("phone contact %s: %w", phoneID, ErrNotFound)
	}
	owner, err := st.Profiles().GetByPhoneContactID(ctx, phoneID)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != profileID {
		return fmt.Errorf("phone contact %s: %w", phoneID, ErrContactLinked)
	}
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
