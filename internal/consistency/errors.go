package consistency

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAccountExists    = errors.New("account already exists for customer")
	ErrContactLinked    = errors.New("contact is linked to another profile")
	ErrDuplicateContact = errors.New("contact address already registered")
	ErrInvalidStatus    = errors.New("invalid activity status")

	ErrOtpExpired          = errors.New("otp token expired")
	ErrOtpUsed             = errors.New("otp token already used")
	ErrOtpAttemptsExceeded = errors.New("otp attempts exceeded")
	ErrOtpMismatch         = errors.New("otp code does not match")
)
