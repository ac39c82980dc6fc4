package domain

import "time"

// Profile links a customer identity to at most one email and at most one phone contact.
type Profile struct {
	ID             string
	FirstName      string
	LastName       string
	EmailContactID *string // nil when no email is linked
	PhoneContactID *string // nil when no phone is linked
	CreatedAt      time.Time
	ModifiedAt     time.Time
}

// HasContact reports whether at least one contact is linked.
func (p *Profile) HasContact() bool {
	return p.EmailContactID != nil || p.PhoneContactID != nil
}
