package consistency

import (
	"context"
	"fmt"
	"time"

	"loyalty-accounts/internal/otp"
	otpdomain "loyalty-accounts/internal/otp/domain"
)

// IssueOtpToken stores a new token for target and returns it with the plain code to deliver.
func (s *Service) IssueOtpToken(ctx context.Context, target otpdomain.Target, purpose otpdomain.Purpose, ttl time.Duration, maxAttempts int) (*otpdomain.Token, string, error) {
	t, code, err := otp.Issue(target, purpose, ttl, maxAttempts, s.now())
	if err != nil {
		return nil, "", err
	}
	err = s.uow.RunInTx(ctx, func(st Stores) error {
		if err := s.checkTarget(ctx, st, target); err != nil {
			return err
		}
		return st.OtpTokens().Create(ctx, t)
	})
	if err != nil {
		return nil, "", err
	}
	return t, code, nil
}

// UseOtpToken marks the token used. For verification purposes the target contact is verified
// if it is not already, which recomputes the linking account. PASSWORD_RESET tokens never touch
// verification. A token can be used once.
func (s *Service) UseOtpToken(ctx context.Context, tokenID string, at time.Time) error {
	return s.uow.RunInTx(ctx, func(st Stores) error {
		t, err := s.getOtp(ctx, st, tokenID)
		if err != nil {
			return err
		}
		return s.useOtp(ctx, st, t, at)
	})
}

func (s *Service) useOtp(ctx context.Context, st Stores, t *otpdomain.Token, at time.Time) error {
	if t.Used() {
		return ErrOtpUsed
	}
	usedAt := at.UTC()
	t.UsedAt = &usedAt
	if err := st.OtpTokens().Update(ctx, t); err != nil {
		return err
	}
	if !t.Purpose.VerifiesContact() {
		return nil
	}
	switch target := t.Target.(type) {
	case otpdomain.EmailTarget:
		return s.setEmailVerified(ctx, st, target.EmailContactID, true)
	case otpdomain.PhoneTarget:
		return s.setPhoneVerified(ctx, st, target.PhoneContactID, true)
	default:
		return fmt.Errorf("otp token %s: unknown target %T", t.ID, t.Target)
	}
}

// VerifyOtpCode checks code against the token at time at. A wrong code consumes one attempt and
// returns ErrOtpMismatch; the attempt is still persisted. The right code uses the token.
func (s *Service) VerifyOtpCode(ctx context.Context, tokenID, code string, at time.Time) error {
	mismatch := false
	err := s.uow.RunInTx(ctx, func(st Stores) error {
		t, err := s.getOtp(ctx, st, tokenID)
		if err != nil {
			return err
		}
		switch {
		case t.Used():
			return ErrOtpUsed
		case t.Expired(at):
			return ErrOtpExpired
		case t.AttemptsExhausted():
			return ErrOtpAttemptsExceeded
		}
		if !otp.CodeMatches(code, t.CodeHash) {
			t.AttemptsCount++
			mismatch = true
			return st.OtpTokens().Update(ctx, t)
		}
		return s.useOtp(ctx, st, t, at)
	})
	if err != nil {
		return err
	}
	if mismatch {
		return ErrOtpMismatch
	}
	return nil
}

func (s *Service) getOtp(ctx context.Context, st Stores, tokenID string) (*otpdomain.Token, error) {
	t, err := st.OtpTokens().GetByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("otp token %s: %w", tokenID, ErrNotFound)
	}
	return t, nil
}

func (s *Service) checkTarget(ctx context.Context, st Stores, target otpdomain.Target) error {
	switch tg := target.(type) {
	case otpdomain.EmailTarget:
		e, err := st.Emails().GetByID(ctx, tg.EmailContactID)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("email contact %s: %w", tg.EmailContactID, ErrNotFound)
		}
	case otpdomain.PhoneTarget:
		p, err := st.Phones().GetByID(ctx, tg.PhoneContactID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("phone contact %s: %w", tg.PhoneContactID, ErrNotFound)
		}
	default:
		return fmt.Errorf("unknown otp target %T", target)
	}
	return nil
}
