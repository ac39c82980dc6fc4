package consistency

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	accountdomain "loyalty-accounts/internal/account/domain"
	resettokendomain "loyalty-accounts/internal/resettoken/domain"
)

// CreateAccount creates the customer's login account with derived username and verification
// status. Fails with *verification.NoContactMethodError if the profile links no contact.
func (s *Service) CreateAccount(ctx context.Context, customerID, passwordHash string) (*accountdomain.Account, error) {
	var out *accountdomain.Account
	err := s.uow.RunInTx(ctx, func(st Stores) error {
		p, err := s.getProfile(ctx, st, customerID)
		if err != nil {
			return err
		}
		existing, err := st.Accounts().GetByCustomerID(ctx, customerID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAccountExists
		}
		d, err := derive(ctx, st, p)
		if err != nil {
			return err
		}
		now := s.now()
		a := &accountdomain.Account{
			ID:                 s.newID(),
			CustomerID:         customerID,
			Username:           d.username,
			PasswordHash:       passwordHash,
			ActivityStatus:     accountdomain.ActivityStatusActive,
			VerificationStatus: d.status,
			CreatedAt:          now,
			ModifiedAt:         now,
		}
		if err := st.Accounts().Create(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("account created", zap.String("account_id", out.ID), zap.String("customer_id", customerID))
	return out, nil
}

// RecomputeVerificationAndUsername re-derives the customer's account fields and reports whether
// anything was written.
func (s *Service) RecomputeVerificationAndUsername(ctx context.Context, customerID string) (bool, error) {
	var changed bool
	err := s.uow.RunInTx(ctx, func(st Stores) error {
		p, err := s.getProfile(ctx, st, customerID)
		if err != nil {
			return err
		}
		changed, err = s.recompute(ctx, st, p)
		return err
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// ChangeActivityStatus sets the account's activity status and audits the transition.
// Reports whether the status actually changed.
func (s *Service) ChangeActivityStatus(ctx context.Context, accountID string, status accountdomain.ActivityStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	var changed bool
	err := s.uow.RunInTx(ctx, func(st Stores) error {
		a, err := s.getAccount(ctx, st, accountID)
		if err != nil {
			return err
		}
		changed, err = s.transition(ctx, st, a, status)
		return err
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// transition writes the status and its audit row together; a no-op writes neither.
func (s *Service) transition(ctx context.Context, st Stores, a *accountdomain.Account, status accountdomain.ActivityStatus) (bool, error) {
	if a.ActivityStatus == status {
		return false, nil
	}
	now := s.now()
	if err := st.Accounts().UpdateActivityStatus(ctx, a.ID, status, now); err != nil {
		return false, err
	}
	if _, err := s.statusLog.Record(ctx, st.StatusAudit(), a.ID, a.ActivityStatus, status, now); err != nil {
		return false, err
	}
	a.ActivityStatus = status
	a.ModifiedAt = now
	return true, nil
}

// RecordLogin stores the login time. It is not an activity-status change.
func (s *Service) RecordLogin(ctx context.Context, accountID string, at time.Time) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		if _, err := s.getAccount(ctx, st, accountID); err != nil {
			return err
		}
		return st.Accounts().UpdateLastLogin(ctx, accountID, at.UTC())
	})
}

// IssuePasswordResetToken creates a reset token for the account, valid for ttl.
func (s *Service) IssuePasswordResetToken(ctx context.Context, accountID string, ttl time.Duration) (*resettokendomain.Token, error) {
	if ttl <= 0 {
		return nil, errors.New("reset token ttl must be positive")
	}
	value, err := newTokenValue()
	if err != nil {
		return nil, err
	}
	var out *resettokendomain.Token
	err = s.uow.RunInTx(ctx, func(st Stores) error {
		if _, err := s.getAccount(ctx, st, accountID); err != nil {
			return err
		}
		now := s.now()
		t := &resettokendomain.Token{
			ID:         s.newID(),
			AccountID:  accountID,
			TokenValue: value,
			ExpiresAt:  now.Add(ttl),
			CreatedAt:  now,
		}
		if err := st.ResetTokens().Create(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) getAccount(ctx context.Context, st Stores, accountID string) (*accountdomain.Account, error) {
	a, err := st.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return a, nil
}

// newTokenValue returns 32 random bytes, hex encoded.
func newTokenValue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
