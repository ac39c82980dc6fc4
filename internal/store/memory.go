package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	accountdomain "loyalty-accounts/internal/account/domain"
	accountrepo "loyalty-accounts/internal/account/repository"
	auditdomain "loyalty-accounts/internal/audit/domain"
	auditrepo "loyalty-accounts/internal/audit/repository"
	"loyalty-accounts/internal/consistency"
	contactdomain "loyalty-accounts/internal/contact/domain"
	contactrepo "loyalty-accounts/internal/contact/repository"
	customerdomain "loyalty-accounts/internal/customer/domain"
	customerrepo "loyalty-accounts/internal/customer/repository"
	otpdomain "loyalty-accounts/internal/otp/domain"
	otprepo "loyalty-accounts/internal/otp/repository"
	resettokendomain "loyalty-accounts/internal/resettoken/domain"
	resettokenrepo "loyalty-accounts/internal/resettoken/repository"
	settingsdomain "loyalty-accounts/internal/settings/domain"
	settingsrepo "loyalty-accounts/internal/settings/repository"
)

// ErrConflict is returned by the memory store where Postgres would raise a unique violation.
var ErrConflict = errors.New("store: unique constraint violated")

type memState struct {
	emails      map[string]contactdomain.Email
	phones      map[string]contactdomain.Phone
	profiles    map[string]customerdomain.Profile
	accounts    map[string]accountdomain.Account
	statusAudit []auditdomain.StatusChange
	jobAudit    []auditdomain.JobExecution
	otpTokens   map[string]otpdomain.Token
	resetTokens map[string]resettokendomain.Token
	settings    map[string]settingsdomain.Setting
}

func newMemState() *memState {
	return &memState{
		emails:      map[string]contactdomain.Email{},
		phones:      map[string]contactdomain.Phone{},
		profiles:    map[string]customerdomain.Profile{},
		accounts:    map[string]accountdomain.Account{},
		otpTokens:   map[string]otpdomain.Token{},
		resetTokens: map[string]resettokendomain.Token{},
		settings:    map[string]settingsdomain.Setting{},
	}
}

// clone copies the maps and slices. Stored values are never mutated in place, so the values
// themselves can be shared.
func (s *memState) clone() memState {
	c := memState{
		emails:      make(map[string]contactdomain.Email, len(s.emails)),
		phones:      make(map[string]contactdomain.Phone, len(s.phones)),
		profiles:    make(map[string]customerdomain.Profile, len(s.profiles)),
		accounts:    make(map[string]accountdomain.Account, len(s.accounts)),
		statusAudit: append([]auditdomain.StatusChange(nil), s.statusAudit...),
		jobAudit:    append([]auditdomain.JobExecution(nil), s.jobAudit...),
		otpTokens:   make(map[string]otpdomain.Token, len(s.otpTokens)),
		resetTokens: make(map[string]resettokendomain.Token, len(s.resetTokens)),
		settings:    make(map[string]settingsdomain.Setting, len(s.settings)),
	}
	for k, v := range s.emails {
		c.emails[k] = v
	}
	for k, v := range s.phones {
		c.phones[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.otpTokens {
		c.otpTokens[k] = v
	}
	for k, v := range s.resetTokens {
		c.resetTokens[k] = v
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	return c
}

// Memory is an in-process store. One coarse mutex serializes every operation; RunInTx holds it
// for the whole callback and restores a snapshot when fn fails.
type Memory struct {
	mu sync.Mutex
	st *memState
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{st: newMemState()}
}

// RunInTx runs fn atomically against the store.
func (m *Memory) RunInTx(ctx context.Context, fn func(consistency.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.st.clone()
	if err := fn(memStores{v: memView{st: m.st}}); err != nil {
		*m.st = snapshot
		return err
	}
	return nil
}

// Accessors outside RunInTx lock per call.
func (m *Memory) view() memView { return memView{st: m.st, mu: &m.mu} }

func (m *Memory) Emails() contactrepo.EmailRepository     { return memEmails{m.view()} }
func (m *Memory) Phones() contactrepo.PhoneRepository     { return memPhones{m.view()} }
func (m *Memory) Profiles() customerrepo.Repository       { return memProfiles{m.view()} }
func (m *Memory) Accounts() accountrepo.Repository        { return memAccounts{m.view()} }
func (m *Memory) StatusAudit() auditrepo.StatusRepository { return memStatusAudit{m.view()} }
func (m *Memory) JobAudit() auditrepo.JobRepository       { return memJobAudit{m.view()} }
func (m *Memory) OtpTokens() otprepo.Repository           { return memOtpTokens{m.view()} }
func (m *Memory) ResetTokens() resettokenrepo.Repository  { return memResetTokens{m.view()} }
func (m *Memory) Settings() settingsrepo.Repository       { return memSettings{m.view()} }

// memView is the state plus the lock to take, if any. Inside RunInTx mu is nil because the
// transaction already holds it.
type memView struct {
	st *memState
	mu *sync.Mutex
}

func (v memView) do(ctx context.Context, fn func(s *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.mu != nil {
		v.mu.Lock()
		defer v.mu.Unlock()
	}
	return fn(v.st)
}

type memStores struct {
	v memView
}

func (s memStores) Emails() contactrepo.EmailRepository     { return memEmails{s.v} }
func (s memStores) Phones() contactrepo.PhoneRepository     { return memPhones{s.v} }
func (s memStores) Profiles() customerrepo.Repository       { return memProfiles{s.v} }
func (s memStores) Accounts() accountrepo.Repository        { return memAccounts{s.v} }
func (s memStores) StatusAudit() auditrepo.StatusRepository { return memStatusAudit{s.v} }
func (s memStores) OtpTokens() otprepo.Repository           { return memOtpTokens{s.v} }
func (s memStores) ResetTokens() resettokenrepo.Repository  { return memResetTokens{s.v} }

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// --- contacts

type memEmails struct{ v memView }

func (r memEmails) GetByID(ctx context.Context, id string) (*contactdomain.Email, error) {
	var out *contactdomain.Email
	err := r.v.do(ctx, func(s *memState) error {
		if e, ok := s.emails[id]; ok {
			out = &e
		}
		return nil
	})
	return out, err
}

func (r memEmails) GetByAddress(ctx context.Context, address string) (*contactdomain.Email, error) {
	var out *contactdomain.Email
	err := r.v.do(ctx, func(s *memState) error {
		for _, e := range s.emails {
			if e.Address == address {
				e := e
				out = &e
				break
			}
		}
		return nil
	})
	return out, err
}

func (r memEmails) Create(ctx context.Context, e *contactdomain.Email) error {
	return r.v.do(ctx, func(s *memState) error {
		if _, ok := s.emails[e.ID]; ok {
			return fmt.Errorf("create email contact: %w", ErrConflict)
		}
		for _, other := range s.emails {
			if other.Address == e.Address {
				return fmt.Errorf("create email contact: %w", ErrConflict)
			}
		}
		s.emails[e.ID] = *e
		return nil
	})
}

func (r memEmails) Update(ctx context.Context, e *contactdomain.Email) error {
	return r.v.do(ctx, func(s *memState) error {
		if _, ok := s.emails[e.ID]; !ok {
			return nil
		}
		for id, other := range s.emails {
			if id != e.ID && other.Address == e.Address {
				return fmt.Errorf("update email contact: %w", ErrConflict)
			}
		}
		s.emails[e.ID] = *e
		return nil
	})
}

func (r memEmails) Delete(ctx context.Context, id string) error {
	return r.v.do(ctx, func(s *memState) error {
		delete(s.emails, id)
		return nil
	})
}

type memPhones struct{ v memView }

func (r memPhones) GetByID(ctx context.Context, id string) (*contactdomain.Phone, error) {
	var out *contactdomain.Phone
	err := r.v.do(ctx, func(s *memState) error {
		if p, ok := s.phones[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r memPhones) GetByNumber(ctx context.Context, number string) (*contactdomain.Phone, error) {
	var out *contactdomain.Phone
	err := r.v.do(ctx, func(s *memState) error {
		for _, p := range s.phones {
			if p.Number == number {
				p := p
				out = &p
				break
			}
		}
		return nil
	})
	return out, err
}

func (r memPhones) Create(ctx context.Context, p *contactdomain.Phone) error {
	return r.v.do(ctx, func(s *memState) error {
		if _, ok := s.phones[p.ID]; ok {
			return fmt.Errorf("create phone contact: %w", ErrConflict)
		}
		for _, other := range s.phones {
			if other.Number == p.Number {
				return fmt.Errorf("create phone contact: %w", ErrConflict)
			}
		}
		s.phones[p.ID] = *p
		return nil
	})
}

func (r memPhones) Update(ctx context.Context, p *contactdomain.Phone) error {
	return r.v.do(ctx, func(s *memState) error {
		if _, ok := s.phones[p.ID]; !ok {
			return nil
		}
		for id, other := range s.phones {
			if id != p.ID && other.Number == p.Number {
				return fmt.Errorf("update phone contact: %w", ErrConflict)
			}
		}
		s.phones[p.ID] = *p
		return nil
	})
}

func (r memPhones) Delete(ctx context.Context, id string) error {
	return r.v.do(ctx, func(s *memState) error {
		delete(s.phones, id)
		return nil
	})
}

// --- profiles

type memProfiles struct{ v memView }

func copyProfile(p customerdomain.Profile) *customerdomain.Profile {
	p.EmailContactID = cloneString(p.EmailContactID)
	p.PhoneContactID = cloneString(p.PhoneContactID)
	return &p
}

func (r memProfiles) GetByID(ctx context.Context, id string) (*customerdomain.Profile, error) {
	var out *customerdomain.Profile
	err := r.v.do(ctx, func(s *memState) error {
		if p, ok := s.profiles[id]; ok {
			out = copyProfile(p)
		}
		return nil
	})
	return out, err
}

func (r memProfiles) GetByEmailContactID(ctx context.Context, emailID string) (*customerdomain.Profile, error) {
	return r.find(ctx, func(p customerdomain.Profile) bool {
		return p.EmailContactID != nil && *p.EmailContactID == emailID
	})
}

func (r memProfiles) GetByPhoneContactID(ctx context.Context, phoneID string) (*customerdomain.Profile, error) {
	return r.find(ctx, func(p customerdomain.Profile) bool {
		return p.PhoneContactID != nil && *p.PhoneContactID == phoneID
	})
}

func (r memProfiles) find(ctx context.Context, match func(customerdomain.Profile) bool) (*customerdomain.Profile, error) {
	var out *customerdomain.Profile
	err := r.v.do(ctx, func(s *memState) error {
		for _, p := range s.profiles {
			if match(p) {
				out = copyProfile(p)
				break
			}
		}
		return nil
	})
	return out, err
}

// linkTaken mirrors the unique indexes on the profile link columns.
func linkTaken(s *memState, p *customerdomain.Profile) bool {
	for id, other := range s.profiles {
		if id == p.ID {
			continue
		}
		if p.EmailContactID != nil && other.EmailContactID != nil && *p.EmailContactID == *other.EmailContactID {
			return true
		}
		if p.PhoneContactID != nil && other.PhoneContactID != nil && *p.PhoneContactID == *other.PhoneContactID {
			return true
		}
	}
	return false
}

func (r memProfiles) Create(ctx context.Context, p *customerdomain.Profile) error {
	return r.v.do(ctx, func(s *memState) error {
		if _, ok := s.profiles[p.ID]; ok || linkTaken(s, p) {
			return fmt.Errorf("create customer profile: %w", ErrConflict)
		}
		s.profiles[p.ID] = *copyProfile(*p)
		return nil
	})
}

func (r memProfiles) Update(ctx context.Context, p *customerdomain.Profile) error {
	return r.v.do(ctx, func(s *memState) error {
		if _, ok := s.profiles[p.ID]; !ok {
			return nil
		}
		if linkTaken(s, p) {
			return fmt.Errorf("update customer profile: %w", ErrConflict)
		}
		s.profiles[p.ID] = *copyProfile(*p)
		return nil
	})
}

func (r memProfiles) Delete(ctx context.Context, id string) error {
	return r.v.do(ctx, func(s *memState) error {
		delete(s.profiles, id)
		return nil
	})
}

// --- accounts

type memAccounts struct{ v memView }

func copyAccount(a accountdomain.Account) *accountdomain.Account {
	a.LastLoginAt = cloneTime(a.LastLoginAt)
	return &a
}

func (r memAccounts) GetByID(ctx context.Context, id string) (*accountdomain.Account, error) {
	var out *accountdomain.Account
	err := r.v.do(ctx, func(s *memState) error {
		if a, ok := s.accounts[id]; ok {
			out = copyAccount(a)
		}
		return nil
	})
	return out, err
}

func (r memAccounts) GetByCustomerID(ctx context.Context, customerID string) (*accountdomain.Account, error) {
	var out *accountdomain.Account
	err := r.v.do(ctx, func(s *memState) error {
		for _, a := range s.accounts {
			if a.CustomerID == customerID {
				out = copyAccount(a)
				break
			}
		}
		return nil
	})
	return out, err
}

func (r memAccounts) Create(ctx context.Context, a *accountdomain.Account) error {
	return r.v.do(ctx, func(s *memState) error {
		if _, ok := s.accounts[a.ID]; ok {
			return fmt.Errorf("create account: %w", ErrConflict)
		}
		for _, other := range s.accounts {
			if other.CustomerID == a.CustomerID {
				return fmt.Errorf("create account: %w", ErrConflict)
			}
		}
		s.accounts[a.ID] = *copyAccount(*a)
		return nil
	})
}

func (r memAccounts) update(ctx context.Context, id string, fn func(a *accountdomain.Account)) error {
	return r.v.do(ctx, func(s *memState) error {
		a, ok := s.accounts[id]
		if !ok {
			return nil
		}
		fn(&a)
		s.accounts[id] = a
		return nil
	})
}

func (r memAccounts) UpdateDerived(ctx context.Context, id, username string, status accountdomain.VerificationStatus, at time.Time) error {
	return r.update(ctx, id, func(a *accountdomain.Account) {
		a.Username = username
		a.VerificationStatus = status
		a.ModifiedAt = at
	})
}

func (r memAccounts) UpdateActivityStatus(ctx context.Context, id string, status accountdomain.ActivityStatus, at time.Time) error {
	return r.update(ctx, id, func(a *accountdomain.Account) {
		a.ActivityStatus = status
		a.ModifiedAt = at
	})
}

func (r memAccounts) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, func(a *accountdomain.Account) {
		a.LastLoginAt = &at
		a.ModifiedAt = at
	})
}

func (r memAccounts) Delete(ctx context.Context, id string) error {
	return r.v.do(ctx, func(s *memState) error {
		delete(s.accounts, id)
		return nil
	})
}

func (r memAccounts) ListIdleActive(ctx context.Context, cutoff time.Time, limit int) ([]*accountdomain.Account, error) {
	return r.list(ctx, limit, func(a accountdomain.Account) bool {
		return a.ActivityStatus == accountdomain.ActivityStatusActive && a.LastLoginAt != nil && a.LastLoginAt.Before(cutoff)
	}, func(a *accountdomain.Account) time.Time { return *a.LastLoginAt })
}

func (r memAccounts) ListUnverifiedNeverLoggedIn(ctx context.Context, cutoff time.Time, limit int) ([]*accountdomain.Account, error) {
	return r.list(ctx, limit, func(a accountdomain.Account) bool {
		return a.VerificationStatus == accountdomain.VerificationStatusUnverified && a.LastLoginAt == nil && a.CreatedAt.Before(cutoff)
	}, func(a *accountdomain.Account) time.Time { return a.CreatedAt })
}

func (r memAccounts) list(ctx context.Context, limit int, match func(accountdomain.Account) bool, key func(*accountdomain.Account) time.Time) ([]*accountdomain.Account, error) {
	var out []*accountdomain.Account
	err := r.v.do(ctx, func(s *memState) error {
		for _, a := range s.accounts {
			if match(a) {
				out = append(out, copyAccount(a))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return out[i].ID < out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- audit

type memStatusAudit struct{ v memView }

func (r memStatusAudit) Insert(ctx context.Context, c *auditdomain.StatusChange) error {
	return r.v.do(ctx, func(s *memState) error {
		s.statusAudit = append(s.statusAudit, *c)
		return nil
	})
}

func (r memStatusAudit) ListByAccount(ctx context.Context, accountID string) ([]*auditdomain.StatusChange, error) {
	var out []*auditdomain.StatusChange
	err := r.v.do(ctx, func(s *memState) error {
		for _, c := range s.statusAudit {
			if c.AccountID == accountID {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	// Insertion order breaks ties between rows recorded at the same instant.
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, err
}

func (r memStatusAudit) DeleteRecordedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.v.do(ctx, func(s *memState) error {
		kept := s.statusAudit[:0:0]
		for _, c := range s.statusAudit {
			if c.RecordedAt.Before(cutoff) {
				n++
				continue
			}
			kept = append(kept, c)
		}
		s.statusAudit = kept
		return nil
	})
	return n, err
}

type memJobAudit struct{ v memView }

func (r memJobAudit) Insert(ctx context.Context, e *auditdomain.JobExecution) error {
	return r.v.do(ctx, func(s *memState) error {
		c := *e
		c.ErrorMessage = cloneString(e.ErrorMessage)
		s.jobAudit = append(s.jobAudit, c)
		return nil
	})
}

func (r memJobAudit) LatestForDay(ctx context.Context, jobName string, day time.Time) (*auditdomain.JobExecution, error) {
	d := auditdomain.Day(day)
	var out *auditdomain.JobExecution
	err := r.v.do(ctx, func(s *memState) error {
		for _, e := range s.jobAudit {
			if e.JobName != jobName || !auditdomain.Day(e.ExecutionDate).Equal(d) {
				continue
			}
			if out == nil || !e.RecordedAt.Before(out.RecordedAt) {
				e := e
				e.ErrorMessage = cloneString(e.ErrorMessage)
				out = &e
			}
		}
		return nil
	})
	return out, err
}

func (r memJobAudit) DeleteRecordedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.v.do(ctx, func(s *memState) error {
		kept := s.jobAudit[:0:0]
		for _, e := range s.jobAudit {
			if e.RecordedAt.Before(cutoff) {
				n++
				continue
			}
			kept = append(kept, e)
		}
		s.jobAudit = kept
		return nil
	})
	return n, err
}

// --- tokens

type memOtpTokens struct{ v memView }

func copyOtp(t otpdomain.Token) *otpdomain.Token {
	t.UsedAt = cloneTime(t.UsedAt)
	return &t
}

func (r memOtpTokens) GetByID(ctx context.Context, id string) (*otpdomain.Token, error) {
	var out *otpdomain.Token
	err := r.v.do(ctx, func(s *memState) error {
		if t, ok := s.otpTokens[id]; ok {
			out = copyOtp(t)
		}
		return nil
	})
	return out, err
}

func (r memOtpTokens) Create(ctx context.Context, t *otpdomain.Token) error {
	if t.Target == nil {
		return otprepo.ErrUnknownTarget
	}
	return r.v.do(ctx, func(s *memState) error {
		if _, ok := s.otpTokens[t.ID]; ok {
			return fmt.Errorf("create otp token: %w", ErrConflict)
		}
		s.otpTokens[t.ID] = *copyOtp(*t)
		return nil
	})
}

func (r memOtpTokens) Update(ctx context.Context, t *otpdomain.Token) error {
	return r.v.do(ctx, func(s *memState) error {
		stored, ok := s.otpTokens[t.ID]
		if !ok {
			return nil
		}
		stored.UsedAt = cloneTime(t.UsedAt)
		stored.AttemptsCount = t.AttemptsCount
		s.otpTokens[t.ID] = stored
		return nil
	})
}

func (r memOtpTokens) DeleteByTarget(ctx context.Context, target otpdomain.Target) (int64, error) {
	switch target.(type) {
	case otpdomain.EmailTarget, otpdomain.PhoneTarget:
	default:
		return 0, otprepo.ErrUnknownTarget
	}
	var n int64
	err := r.v.do(ctx, func(s *memState) error {
		for id, t := range s.otpTokens {
			if t.Target == target {
				delete(s.otpTokens, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memOtpTokens) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.v.do(ctx, func(s *memState) error {
		for id, t := range s.otpTokens {
			if t.CreatedAt.Before(cutoff) {
				delete(s.otpTokens, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

type memResetTokens struct{ v memView }

func (r memResetTokens) Create(ctx context.Context, t *resettokendomain.Token) error {
	return r.v.do(ctx, func(s *memState) error {
		if _, ok := s.resetTokens[t.ID]; ok {
			return fmt.Errorf("create password reset token: %w", ErrConflict)
		}
		c := *t
		c.UsedAt = cloneTime(t.UsedAt)
		s.resetTokens[t.ID] = c
		return nil
	})
}

func (r memResetTokens) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := r.v.do(ctx, func(s *memState) error {
		for id, t := range s.resetTokens {
			if t.AccountID == accountID {
				delete(s.resetTokens, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memResetTokens) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.v.do(ctx, func(s *memState) error {
		for id, t := range s.resetTokens {
			if t.CreatedAt.Before(cutoff) {
				delete(s.resetTokens, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// --- settings

type memSettings struct{ v memView }

func (r memSettings) List(ctx context.Context) ([]*settingsdomain.Setting, error) {
	var out []*settingsdomain.Setting
	err := r.v.do(ctx, func(s *memState) error {
		for _, e := range s.settings {
			e := e
			out = append(out, &e)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, err
}

func (r memSettings) Get(ctx context.Context, key string) (*settingsdomain.Setting, error) {
	var out *settingsdomain.Setting
	err := r.v.do(ctx, func(s *memState) error {
		if e, ok := s.settings[key]; ok {
			out = &e
		}
		return nil
	})
	return out, err
}

func (r memSettings) Upsert(ctx context.Context, e *settingsdomain.Setting) error {
	return r.v.do(ctx, func(s *memState) error {
		s.settings[e.Key] = *e
		return nil
	})
}

func (r memSettings) InsertIfMissing(ctx context.Context, e *settingsdomain.Setting) (bool, error) {
	inserted := false
	err := r.v.do(ctx, func(s *memState) error {
		if _, ok := s.settings[e.Key]; ok {
			return nil
		}
		s.settings[e.Key] = *e
		inserted = true
		return nil
	})
	return inserted, err
}

func (r memSettings) Delete(ctx context.Context, key string) error {
	return r.v.do(ctx, func(s *memState) error {
		delete(s.settings, key)
		return nil
	})
}
