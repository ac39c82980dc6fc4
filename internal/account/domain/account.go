package domain

import "time"

// Account is the login account of one customer. Username and VerificationStatus are derived
// from the customer's linked contacts and are only written by the consistency service.
type Account struct {
	ID                 string
	CustomerID         string
	Username           string
	PasswordHash       string
	ActivityStatus     ActivityStatus
	VerificationStatus VerificationStatus
	LastLoginAt        *time.Time // nil until first login
	CreatedAt          time.Time
	ModifiedAt         time.Time
}

// ActivityStatus is the operational state of an account.
type ActivityStatus string

const (
	ActivityStatusActive    ActivityStatus = "ACTIVE"
	ActivityStatusInactive  ActivityStatus = "INACTIVE"
	ActivityStatusSuspended ActivityStatus = "SUSPENDED"
)

// Valid reports whether s is one of the known activity statuses.
func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityStatusActive, ActivityStatusInactive, ActivityStatusSuspended:
		return true
	}
	return false
}

// VerificationStatus summarizes which contact channels of the account are verified.
type VerificationStatus string

const (
	VerificationStatusUnverified    VerificationStatus = "UNVERIFIED"
	VerificationStatusEmailVerified VerificationStatus = "EMAIL_VERIFIED"
	VerificationStatusPhoneVerified VerificationStatus = "PHONE_VERIFIED"
	VerificationStatusFullyVerified VerificationStatus = "FULLY_VERIFIED"
)

// HasLoggedIn reports whether the account has ever logged in.
func (a *Account) HasLoggedIn() bool {
	return a.LastLoginAt != nil
}
