// Package verification derives an account's username and verification status from its linked contacts.
// Everything here is pure; persistence is the caller's job.
package verification

import (
	accountdomain "loyalty-accounts/internal/account/domain"
)

// ContactState is what the calculator needs to know about one contact channel.
type ContactState struct {
	Linked   bool
	Verified bool
}

func (c ContactState) proven() bool {
	return c.Linked && c.Verified
}

// Calculate returns the verification status for the given email and phone channels.
// An unlinked channel never counts as verified.
func Calculate(email, phone ContactState) accountdomain.VerificationStatus {
	switch {
	case email.proven() && phone.proven():
		return accountdomain.VerificationStatusFullyVerified
	case email.proven():
		return accountdomain.VerificationStatusEmailVerified
	case phone.proven():
		return accountdomain.VerificationStatusPhoneVerified
	default:
		return accountdomain.VerificationStatusUnverified
	}
}

// NoContactMethodError is returned when a profile has neither an email nor a phone linked.
type NoContactMethodError struct {
	CustomerID string
}

func (e *NoContactMethodError) Error() string {
	if e.CustomerID == "" {
		return "no contact method linked"
	}
	return "no contact method linked for customer " + e.CustomerID
}

// ResolveUsername returns the linked email address if any (verified or not), else the linked phone number.
// nil means the channel is not linked.
func ResolveUsername(customerID string, emailAddress, phoneNumber *string) (string, error) {
	if emailAddress != nil {
		return *emailAddress, nil
	}
	if phoneNumber != nil {
		return *phoneNumber, nil
	}
	return "", &NoContactMethodError{CustomerID: customerID}
}
