package domain

import "time"

// Email is an email address contact. Address is unique across all email contacts.
type Email struct {
	ID         string
	Address    string
	Verified   bool
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Phone is a phone number contact. Number is unique across all phone contacts.
type Phone struct {
	ID         string
	Number     string
	Verified   bool
	CreatedAt  time.Time
	ModifiedAt time.Time
}
