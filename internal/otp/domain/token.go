package domain

import "time"

// Purpose is what an OTP token proves when it is used.
type Purpose string

const (
	PurposeEmailVerification Purpose = "EMAIL_VERIFICATION"
	PurposePhoneVerification Purpose = "PHONE_VERIFICATION"
	PurposePasswordReset     Purpose = "PASSWORD_RESET"
)

// VerifiesContact reports whether using a token of this purpose marks its target contact verified.
func (p Purpose) VerifiesContact() bool {
	return p == PurposeEmailVerification || p == PurposePhoneVerification
}

// DeliveryMethod is the channel the code was sent over.
type DeliveryMethod string

const (
	DeliveryEmail DeliveryMethod = "EMAIL"
	DeliverySMS   DeliveryMethod = "SMS"
)

// Target is the contact an OTP token was issued for: exactly one of EmailTarget or PhoneTarget.
type Target interface {
	ContactID() string
	isTarget()
}

// EmailTarget addresses an email contact.
type EmailTarget struct {
	EmailContactID string
}

func (t EmailTarget) ContactID() string { return t.EmailContactID }
func (EmailTarget) isTarget()           {}

// PhoneTarget addresses a phone contact.
type PhoneTarget struct {
	PhoneContactID string
}

func (t PhoneTarget) ContactID() string { return t.PhoneContactID }
func (PhoneTarget) isTarget()           {}

// Token is a one-time code issued for a contact. CodeHash is HashOTP of the plain code.
type Token struct {
	ID             string
	Target         Target
	CodeHash       string
	Purpose        Purpose
	DeliveryMethod DeliveryMethod
	ExpiresAt      time.Time
	UsedAt         *time.Time
	AttemptsCount  int
	MaxAttempts    int
	CreatedAt      time.Time
}

// Used reports whether the token was already consumed.
func (t *Token) Used() bool {
	return t.UsedAt != nil
}

// Expired reports whether the token is past its expiry at now.
func (t *Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// AttemptsExhausted reports whether no verification attempts remain.
func (t *Token) AttemptsExhausted() bool {
	return t.MaxAttempts > 0 && t.AttemptsCount >= t.MaxAttempts
}
