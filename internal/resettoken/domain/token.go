package domain

import "time"

// Token is a password reset token issued to an account.
type Token struct {
	ID         string
	AccountID  string
	TokenValue string
	ExpiresAt  time.Time
	UsedAt     *time.Time
	CreatedAt  time.Time
}
