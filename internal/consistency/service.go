// Package consistency is the single write path for contacts, profile links, OTP usage and account
// status. Every mutation recomputes the derived account fields in the same unit of work.
package consistency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	accountdomain "loyalty-accounts/internal/account/domain"
	"loyalty-accounts/internal/audit"
	customerdomain "loyalty-accounts/internal/customer/domain"
	"loyalty-accounts/internal/platform/logger"
	"loyalty-accounts/internal/verification"
)

// Service implements the consistency propagator.
type Service struct {
	uow       UnitOfWork
	statusLog *audit.StatusLog
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService returns a Service writing through uow. logger may be nil.
func NewService(uow UnitOfWork, statusLog *audit.StatusLog, l *zap.Logger, opts ...Option) *Service {
	if statusLog == nil {
		statusLog = audit.NewStatusLog()
	}
	s := &Service{
		uow:       uow,
		statusLog: statusLog,
		logger:    logger.OrNop(l),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// derived is the username and verification status a profile's links imply.
type derived struct {
	username string
	status   accountdomain.VerificationStatus
}

// derive loads the profile's linked contacts and applies the pure rules.
func derive(ctx context.Context, st Stores, p *customerdomain.Profile) (derived, error) {
	var (
		emailAddr, phoneNum *string
		email, phone        verification.ContactState
	)
	if p.EmailContactID != nil {
		e, err := st.Emails().GetByID(ctx, *p.EmailContactID)
		if err != nil {
			return derived{}, err
		}
		if e != nil {
			emailAddr = &e.Address
			email = verification.ContactState{Linked: true, Verified: e.Verified}
		}
	}
	if p.PhoneContactID != nil {
		ph, err := st.Phones().GetByID(ctx, *p.PhoneContactID)
		if err != nil {
			return derived{}, err
		}
		if ph != nil {
			phoneNum = &ph.Number
			phone = verification.ContactState{Linked: true, Verified: ph.Verified}
		}
	}
	username, err := verification.ResolveUsername(p.ID, emailAddr, phoneNum)
	if err != nil {
		return derived{}, err
	}
	return derived{username: username, status: verification.Calculate(email, phone)}, nil
}

// recompute brings the profile's account (if any) in line with its links.
// The account row is written only when a derived value differs.
func (s *Service) recompute(ctx context.Context, st Stores, p *customerdomain.Profile) (bool, error) {
	if p == nil {
		return false, nil
	}
	acc, err := st.Accounts().GetByCustomerID(ctx, p.ID)
	if err != nil {
		return false, err
	}
	if acc == nil {
		return false, nil
	}
	d, err := derive(ctx, st, p)
	if err != nil {
		return false, err
	}
	if acc.Username == d.username && acc.VerificationStatus == d.status {
		return false, nil
	}
	if err := st.Accounts().UpdateDerived(ctx, acc.ID, d.username, d.status, s.now()); err != nil {
		return false, err
	}
	s.logger.Debug("account derived fields updated",
		zap.String("account_id", acc.ID),
		zap.String("verification_status", string(d.status)),
	)
	return true, nil
}
