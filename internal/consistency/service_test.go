package consistency_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountdomain "loyalty-accounts/internal/account/domain"
	"loyalty-accounts/internal/audit"
	auditdomain "loyalty-accounts/internal/audit/domain"
	auditrepo "loyalty-accounts/internal/audit/repository"
	"loyalty-accounts/internal/consistency"
	"loyalty-accounts/internal/store"
	"loyalty-accounts/internal/verification"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newService(t *testing.T) (*consistency.Service, *store.Memory, *fakeClock) {
	t.Helper()
	mem := store.NewMemory()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := consistency.NewService(mem, audit.NewStatusLog(), nil, consistency.WithClock(clock.Now))
	return svc, mem, clock
}

func strPtr(s string) *string { return &s }

func getAccount(t *testing.T, mem *store.Memory, id string) *accountdomain.Account {
	t.Helper()
	a, err := mem.Accounts().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

// Email-only account starts UNVERIFIED and becomes EMAIL_VERIFIED when the email is verified.
func TestEmailVerificationPropagates(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t)

	email, err := svc.CreateEmailContact(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, email.Verified)

	profile, err := svc.CreateProfile(ctx, "Ada", "Lovelace", &email.ID, nil)
	require.NoError(t, err)
	acc, err := svc.CreateAccount(ctx, profile.ID, "hash")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", acc.Username)
	assert.Equal(t, accountdomain.VerificationStatusUnverified, acc.VerificationStatus)
	assert.Equal(t, accountdomain.ActivityStatusActive, acc.ActivityStatus)

	require.NoError(t, svc.SetEmailVerified(ctx, email.ID, true))
	assert.Equal(t, accountdomain.VerificationStatusEmailVerified, getAccount(t, mem, acc.ID).VerificationStatus)
}

// Unlinking the email of a fully verified account falls back to the phone for both fields.
func TestUnlinkEmailFallsBackToPhone(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t)

	email, err := svc.CreateEmailContact(ctx, "b@x.com")
	require.NoError(t, err)
	phone, err := svc.CreatePhoneContact(ctx, "+15550100")
	require.NoError(t, err)
	require.NoError(t, svc.SetEmailVerified(ctx, email.ID, true))
	require.NoError(t, svc.SetPhoneVerified(ctx, phone.ID, true))

	profile, err := svc.CreateProfile(ctx, "Grace", "Hopper", &email.ID, &phone.ID)
	require.NoError(t, err)
	acc, err := svc.CreateAccount(ctx, profile.ID, "hash")
	require.NoError(t, err)
	assert.Equal(t, accountdomain.VerificationStatusFullyVerified, acc.VerificationStatus)
	assert.Equal(t, "b@x.com", acc.Username)

	require.NoError(t, svc.UnlinkEmail(ctx, profile.ID))
	got := getAccount(t, mem, acc.ID)
	assert.Equal(t, accountdomain.VerificationStatusPhoneVerified, got.VerificationStatus)
	assert.Equal(t, "+15550100", got.Username)
}

func TestStatusTransitionsAreAuditedInOrder(t *testing.T) {
	ctx := context.Background()
	svc, mem, clock := newService(t)
	acc := newAccountWithEmail(t, svc, "c@x.com")

	for _, status := range []accountdomain.ActivityStatus{
		accountdomain.ActivityStatusInactive,
		accountdomain.ActivityStatusSuspended,
		accountdomain.ActivityStatusActive,
	} {
		clock.Advance(time.Minute)
		changed, err := svc.ChangeActivityStatus(ctx, acc.ID, status)
		require.NoError(t, err)
		assert.True(t, changed)
	}

	rows, err := mem.StatusAudit().ListByAccount(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	want := [][2]accountdomain.ActivityStatus{
		{accountdomain.ActivityStatusActive, accountdomain.ActivityStatusInactive},
		{accountdomain.ActivityStatusInactive, accountdomain.ActivityStatusSuspended},
		{accountdomain.ActivityStatusSuspended, accountdomain.ActivityStatusActive},
	}
	for i, row := range rows {
		assert.Equal(t, want[i][0], row.OldStatus, "row %d old", i)
		assert.Equal(t, want[i][1], row.NewStatus, "row %d new", i)
		if i > 0 {
			assert.True(t, row.RecordedAt.After(rows[i-1].RecordedAt), "row %d out of order", i)
		}
	}
}

func TestNoAuditRowWithoutStatusChange(t *testing.T) {
	ctx := context.Background()
	svc, mem, clock := newService(t)
	acc := newAccountWithEmail(t, svc, "d@x.com")

	changed, err := svc.ChangeActivityStatus(ctx, acc.ID, accountdomain.ActivityStatusActive)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, svc.RecordLogin(ctx, acc.ID, clock.Now()))
	_, err = svc.RecomputeVerificationAndUsername(ctx, acc.CustomerID)
	require.NoError(t, err)

	rows, err := mem.StatusAudit().ListByAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, getAccount(t, mem, acc.ID).LastLoginAt)
}

func TestChangeActivityStatus_Invalid(t *testing.T) {
	svc, _, _ := newService(t)
	acc := newAccountWithEmail(t, svc, "e@x.com")
	_, err := svc.ChangeActivityStatus(context.Background(), acc.ID, "DORMANT")
	assert.ErrorIs(t, err, consistency.ErrInvalidStatus)
}

func TestCreateAccount_RequiresContact(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t)

	profile, err := svc.CreateProfile(ctx, "No", "Contact", nil, nil)
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, profile.ID, "hash")
	var noContact *verification.NoContactMethodError
	require.ErrorAs(t, err, &noContact)
	assert.Equal(t, profile.ID, noContact.CustomerID)

	a, err := mem.Accounts().GetByCustomerID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestCreateAccount_Duplicate(t *testing.T) {
	svc, _, _ := newService(t)
	acc := newAccountWithEmail(t, svc, "f@x.com")
	_, err := svc.CreateAccount(context.Background(), acc.CustomerID, "hash")
	assert.ErrorIs(t, err, consistency.ErrAccountExists)
}

func TestCreateAccount_UnknownProfile(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.CreateAccount(context.Background(), "missing", "hash")
	assert.ErrorIs(t, err, consistency.ErrNotFound)
}

func TestUnlinkLastContactIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t)
	acc := newAccountWithEmail(t, svc, "g@x.com")

	err := svc.UnlinkEmail(ctx, acc.CustomerID)
	var noContact *verification.NoContactMethodError
	require.ErrorAs(t, err, &noContact)

	p, err := mem.Profiles().GetByID(ctx, acc.CustomerID)
	require.NoError(t, err)
	require.NotNil(t, p.EmailContactID, "profile link must be unchanged")
	assert.Equal(t, "g@x.com", getAccount(t, mem, acc.ID).Username)
}

func TestUnlinkLastContactWithoutAccount(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t)
	email, err := svc.CreateEmailContact(ctx, "h@x.com")
	require.NoError(t, err)
	profile, err := svc.CreateProfile(ctx, "Only", "Profile", &email.ID, nil)
	require.NoError(t, err)

	require.NoError(t, svc.UnlinkEmail(ctx, profile.ID))
	p, err := mem.Profiles().GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Nil(t, p.EmailContactID)
}

func TestLinkSwapRecomputesUsername(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t)

	phone, err := svc.CreatePhoneContact(ctx, "+15550111")
	require.NoError(t, err)
	profile, err := svc.CreateProfile(ctx, "Phone", "First", nil, &phone.ID)
	require.NoError(t, err)
	acc, err := svc.CreateAccount(ctx, profile.ID, "hash")
	require.NoError(t, err)
	assert.Equal(t, "+15550111", acc.Username)

	first, err := svc.CreateEmailContact(ctx, "first@x.com")
	require.NoError(t, err)
	require.NoError(t, svc.LinkEmail(ctx, profile.ID, first.ID))
	assert.Equal(t, "first@x.com", getAccount(t, mem, acc.ID).Username)

	second, err := svc.CreateEmailContact(ctx, "second@x.com")
	require.NoError(t, err)
	require.NoError(t, svc.SetEmailVerified(ctx, second.ID, true))
	require.NoError(t, svc.LinkEmail(ctx, profile.ID, second.ID))
	got := getAccount(t, mem, acc.ID)
	assert.Equal(t, "second@x.com", got.Username)
	assert.Equal(t, accountdomain.VerificationStatusEmailVerified, got.VerificationStatus)

	// The swapped-out contact is free to be linked elsewhere.
	other, err := svc.CreateProfile(ctx, "Other", "Person", &first.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *other.EmailContactID)
}

func TestContactLinkedToOneProfilePerType(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	acc := newAccountWithEmail(t, svc, "i@x.com")

	p, err := svc.CreateProfile(ctx, "Second", "Owner", nil, nil)
	require.NoError(t, err)
	owner, err := svc.CreatePhoneContact(ctx, "+15550122")
	require.NoError(t, err)
	require.NoError(t, svc.LinkPhone(ctx, acc.CustomerID, owner.ID))

	err = svc.LinkPhone(ctx, p.ID, owner.ID)
	assert.ErrorIs(t, err, consistency.ErrContactLinked)

	_, err = svc.CreateEmailContact(ctx, "i@x.com")
	assert.ErrorIs(t, err, consistency.ErrDuplicateContact)
}

func TestChangeEmailAddressClearsVerification(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t)
	acc := newAccountWithEmail(t, svc, "old@x.com")
	p, err := mem.Profiles().GetByID(ctx, acc.CustomerID)
	require.NoError(t, err)
	emailID := *p.EmailContactID

	require.NoError(t, svc.SetEmailVerified(ctx, emailID, true))
	assert.Equal(t, accountdomain.VerificationStatusEmailVerified, getAccount(t, mem, acc.ID).VerificationStatus)

	require.NoError(t, svc.ChangeEmailAddress(ctx, emailID, "new@x.com"))
	got := getAccount(t, mem, acc.ID)
	assert.Equal(t, "new@x.com", got.Username)
	assert.Equal(t, accountdomain.VerificationStatusUnverified, got.VerificationStatus)
}

func TestChangePhoneNumber(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t)
	phone, err := svc.CreatePhoneContact(ctx, "+15550133")
	require.NoError(t, err)
	profile, err := svc.CreateProfile(ctx, "P", "Q", nil, &phone.ID)
	require.NoError(t, err)
	acc, err := svc.CreateAccount(ctx, profile.ID, "hash")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePhoneNumber(ctx, phone.ID, "+15550134"))
	assert.Equal(t, "+15550134", getAccount(t, mem, acc.ID).Username)

	_, err = svc.CreatePhoneContact(ctx, "+15550199")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ChangePhoneNumber(ctx, phone.ID, "+15550199"), consistency.ErrDuplicateContact)
}

func TestDeleteContact(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t)

	email, err := svc.CreateEmailContact(ctx, "j@x.com")
	require.NoError(t, err)
	phone, err := svc.CreatePhoneContact(ctx, "+15550144")
	require.NoError(t, err)
	profile, err := svc.CreateProfile(ctx, "J", "K", &email.ID, &phone.ID)
	require.NoError(t, err)
	acc, err := svc.CreateAccount(ctx, profile.ID, "hash")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEmailContact(ctx, email.ID))
	e, err := mem.Emails().GetByID(ctx, email.ID)
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Equal(t, "+15550144", getAccount(t, mem, acc.ID).Username)

	var noContact *verification.NoContactMethodError
	require.ErrorAs(t, svc.DeletePhoneContact(ctx, phone.ID), &noContact)
	ph, err := mem.Phones().GetByID(ctx, phone.ID)
	require.NoError(t, err)
	assert.NotNil(t, ph, "last contact must survive a rejected delete")
}

func TestRecomputeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, mem, clock := newService(t)
	acc := newAccountWithEmail(t, svc, "k@x.com")
	before := getAccount(t, mem, acc.ID)

	clock.Advance(time.Hour)
	for i := 0; i < 2; i++ {
		changed, err := svc.RecomputeVerificationAndUsername(ctx, acc.CustomerID)
		require.NoError(t, err)
		assert.False(t, changed)
	}
	after := getAccount(t, mem, acc.ID)
	assert.Equal(t, before.ModifiedAt, after.ModifiedAt, "no write expected")
	assert.Equal(t, before, after)
}

func TestRecomputeRepairsStaleAccount(t *testing.T) {
	ctx := context.Background()
	svc, mem, clock := newService(t)
	acc := newAccountWithEmail(t, svc, "l@x.com")

	require.NoError(t, mem.Accounts().UpdateDerived(ctx, acc.ID, "stale", accountdomain.VerificationStatusFullyVerified, clock.Now()))
	changed, err := svc.RecomputeVerificationAndUsername(ctx, acc.CustomerID)
	require.NoError(t, err)
	assert.True(t, changed)
	got := getAccount(t, mem, acc.ID)
	assert.Equal(t, "l@x.com", got.Username)
	assert.Equal(t, accountdomain.VerificationStatusUnverified, got.VerificationStatus)
}

// failingStatusAudit rejects every insert so the transaction must roll back.
type failingStatusAudit struct{}

func (failingStatusAudit) Insert(context.Context, *auditdomain.StatusChange) error {
	return errors.New("audit unavailable")
}

func (failingStatusAudit) ListByAccount(context.Context, string) ([]*auditdomain.StatusChange, error) {
	return nil, nil
}

func (failingStatusAudit) DeleteRecordedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type failingAuditStores struct {
	consistency.Stores
}

func (failingAuditStores) StatusAudit() auditrepo.StatusRepository { return failingStatusAudit{} }

type failingAuditUoW struct {
	mem *store.Memory
}

func (u failingAuditUoW) RunInTx(ctx context.Context, fn func(consistency.Stores) error) error {
	return u.mem.RunInTx(ctx, func(st consistency.Stores) error {
		return fn(failingAuditStores{st})
	})
}

func TestStatusChangeRollsBackWithAudit(t *testing.T) {
	ctx := context.Background()
	svc, mem, clock := newService(t)
	acc := newAccountWithEmail(t, svc, "m@x.com")

	broken := consistency.NewService(failingAuditUoW{mem: mem}, nil, nil, consistency.WithClock(clock.Now))
	_, err := broken.ChangeActivityStatus(ctx, acc.ID, accountdomain.ActivityStatusSuspended)
	require.Error(t, err)
	assert.Equal(t, accountdomain.ActivityStatusActive, getAccount(t, mem, acc.ID).ActivityStatus)
}

func TestDeactivateIdleAccounts(t *testing.T) {
	ctx := context.Background()
	svc, mem, clock := newService(t)
	idle := newAccountWithEmail(t, svc, "idle@x.com")
	recent := newAccountWithEmail(t, svc, "recent@x.com")
	never := newAccountWithEmail(t, svc, "never@x.com")

	require.NoError(t, svc.RecordLogin(ctx, idle.ID, clock.Now().AddDate(0, 0, -200)))
	require.NoError(t, svc.RecordLogin(ctx, recent.ID, clock.Now().AddDate(0, 0, -10)))

	n, err := svc.DeactivateIdleAccounts(ctx, clock.Now().AddDate(0, 0, -180), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, accountdomain.ActivityStatusInactive, getAccount(t, mem, idle.ID).ActivityStatus)
	assert.Equal(t, accountdomain.ActivityStatusActive, getAccount(t, mem, recent.ID).ActivityStatus)
	assert.Equal(t, accountdomain.ActivityStatusActive, getAccount(t, mem, never.ID).ActivityStatus)

	rows, err := mem.StatusAudit().ListByAccount(ctx, idle.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	n, err = svc.DeactivateIdleAccounts(ctx, clock.Now().AddDate(0, 0, -180), 10)
	require.NoError(t, err)
	assert.Zero(t, n, "re-running finds nothing left to act on")
}

func TestPurgeUnverifiedAccounts(t *testing.T) {
	ctx := context.Background()
	svc, mem, clock := newService(t)

	old := newAccountWithEmail(t, svc, "old-unverified@x.com")
	_, err := svc.IssuePasswordResetToken(ctx, old.ID, time.Hour)
	require.NoError(t, err)
	_, err = svc.ChangeActivityStatus(ctx, old.ID, accountdomain.ActivityStatusSuspended)
	require.NoError(t, err)
	loggedIn := newAccountWithEmail(t, svc, "logged-in@x.com")
	require.NoError(t, svc.RecordLogin(ctx, loggedIn.ID, clock.Now()))

	clock.Advance(45 * 24 * time.Hour)
	fresh := newAccountWithEmail(t, svc, "fresh@x.com")

	n, err := svc.PurgeUnverifiedAccounts(ctx, clock.Now().AddDate(0, 0, -30), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	a, err := mem.Accounts().GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, a)
	p, err := mem.Profiles().GetByID(ctx, old.CustomerID)
	require.NoError(t, err)
	assert.Nil(t, p)
	e, err := mem.Emails().GetByAddress(ctx, "old-unverified@x.com")
	require.NoError(t, err)
	assert.Nil(t, e)

	rows, err := mem.StatusAudit().ListByAccount(ctx, old.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "audit trail is kept until retention removes it")

	getAccount(t, mem, loggedIn.ID)
	getAccount(t, mem, fresh.ID)
}

func newAccountWithEmail(t *testing.T, svc *consistency.Service, address string) *accountdomain.Account {
	t.Helper()
	ctx := context.Background()
	email, err := svc.CreateEmailContact(ctx, address)
	require.NoError(t, err)
	profile, err := svc.CreateProfile(ctx, "First", "Last", strPtr(email.ID), nil)
	require.NoError(t, err)
	acc, err := svc.CreateAccount(ctx, profile.ID, "hash")
	require.NoError(t, err)
	return acc
}
