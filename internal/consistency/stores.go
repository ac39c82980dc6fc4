package consistency

import (
	"context"

	accountrepo "loyalty-accounts/internal/account/repository"
	auditrepo "loyalty-accounts/internal/audit/repository"
	contactrepo "loyalty-accounts/internal/contact/repository"
	customerrepo "loyalty-accounts/internal/customer/repository"
	otprepo "loyalty-accounts/internal/otp/repository"
	resettokenrepo "loyalty-accounts/internal/resettoken/repository"
)

// Stores exposes the repositories bound to one unit of work.
type Stores interface {
	Emails() contactrepo.EmailRepository
	Phones() contactrepo.PhoneRepository
	Profiles() customerrepo.Repository
	Accounts() accountrepo.Repository
	StatusAudit() auditrepo.StatusRepository
	OtpTokens() otprepo.Repository
	ResetTokens() resettokenrepo.Repository
}

// UnitOfWork runs fn atomically. If fn returns an error every write made through its Stores is
// discarded; otherwise all of them become visible together.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(Stores) error) error
}
