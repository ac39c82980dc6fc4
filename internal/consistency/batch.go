package consistency

import (
	"context"
	"time"

	"go.uber.org/zap"

	accountdomain "loyalty-accounts/internal/account/domain"
	otpdomain "loyalty-accounts/internal/otp/domain"
)

// DeactivateIdleAccounts marks up to limit ACTIVE accounts whose last login is before cutoff as
// INACTIVE in one unit of work, auditing each transition. Accounts that never logged in are not
// touched. Returns the number of accounts changed.
func (s *Service) DeactivateIdleAccounts(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	n := 0
	err := s.uow.RunInTx(ctx, func(st Stores) error {
		n = 0
		accounts, err := st.Accounts().ListIdleActive(ctx, cutoff, limit)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			changed, err := s.transition(ctx, st, a, accountdomain.ActivityStatusInactive)
			if err != nil {
				return err
			}
			if changed {
				n++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// PurgeUnverifiedAccounts deletes up to limit UNVERIFIED accounts that never logged in and were
// created before cutoff, together with their reset tokens, profile, contacts and OTP tokens.
// Status audit rows are kept; only retention removes them. Returns the number of accounts deleted.
func (s *Service) PurgeUnverifiedAccounts(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	n := 0
	err := s.uow.RunInTx(ctx, func(st Stores) error {
		n = 0
		accounts, err := st.Accounts().ListUnverifiedNeverLoggedIn(ctx, cutoff, limit)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			if err := s.purgeAccount(ctx, st, a); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Service) purgeAccount(ctx context.Context, st Stores, a *accountdomain.Account) error {
	if _, err := st.ResetTokens().DeleteByAccount(ctx, a.ID); err != nil {
		return err
	}
	if err := st.Accounts().Delete(ctx, a.ID); err != nil {
		return err
	}
	p, err := st.Profiles().GetByID(ctx, a.CustomerID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	if err := st.Profiles().Delete(ctx, p.ID); err != nil {
		return err
	}
	if p.EmailContactID != nil {
		if _, err := st.OtpTokens().DeleteByTarget(ctx, otpdomain.EmailTarget{EmailContactID: *p.EmailContactID}); err != nil {
			return err
		}
		if err := st.Emails().Delete(ctx, *p.EmailContactID); err != nil {
			return err
		}
	}
	if p.PhoneContactID != nil {
		if _, err := st.OtpTokens().DeleteByTarget(ctx, otpdomain.PhoneTarget{PhoneContactID: *p.PhoneContactID}); err != nil {
			return err
		}
		if err := st.Phones().Delete(ctx, *p.PhoneContactID); err != nil {
			return err
		}
	}
	s.logger.Debug("unverified account purged", zap.String("account_id", a.ID))
	return nil
}
