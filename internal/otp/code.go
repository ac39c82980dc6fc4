// Package otp issues one-time codes for contact verification and password reset.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"loyalty-accounts/internal/otp/domain"
)

// CodeDigits is the length of generated codes.
const CodeDigits = 6

// DefaultMaxAttempts is used when Issue is given maxAttempts <= 0.
const DefaultMaxAttempts = 3

// GenerateCode returns a 6-digit numeric code string (e.g. "123456") from crypto/rand.
func GenerateCode() (string, error) {
	b := make([]byte, CodeDigits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, CodeDigits)
	for i := 0; i < CodeDigits; i++ {
		s[i] = '0' + (b[i] % 10)
	}
	return string(s), nil
}

// HashCode returns a hex-encoded SHA-256 hash of the code.
func HashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// CodeMatches compares the provided code's hash with the stored hash in constant time.
// An empty code never matches.
func CodeMatches(providedCode, storedHash string) bool {
	if providedCode == "" {
		return false
	}
	providedHash := HashCode(providedCode)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}

// Issue builds a new token for target and returns it with the plain code to deliver.
// The delivery method follows the target kind: email targets get EMAIL, phone targets SMS.
func Issue(target domain.Target, purpose domain.Purpose, ttl time.Duration, maxAttempts int, now time.Time) (*domain.Token, string, error) {
	if target == nil || target.ContactID() == "" {
		return nil, "", errors.New("otp: target contact is required")
	}
	if ttl <= 0 {
		return nil, "", errors.New("otp: ttl must be positive")
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	code, err := GenerateCode()
	if err != nil {
		return nil, "", err
	}
	method := domain.DeliveryEmail
	if _, ok := target.(domain.PhoneTarget); ok {
		method = domain.DeliverySMS
	}
	return &domain.Token{
		ID:             uuid.New().String(),
		Target:         target,
		CodeHash:       HashCode(code),
		Purpose:        purpose,
		DeliveryMethod: method,
		ExpiresAt:      now.Add(ttl),
		MaxAttempts:    maxAttempts,
		CreatedAt:      now,
	}, code, nil
}
