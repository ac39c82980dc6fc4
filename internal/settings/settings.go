// Package settings reads the operator-editable runtime configuration table as immutable snapshots.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"loyalty-accounts/internal/settings/domain"
)

// Keys read by the maintenance jobs.
const (
	KeyAccountInactivityDays         = "account_inactivity_days"
	KeyInactivityBatchSize           = "inactivity_batch_size"
	KeyPasswordResetTokenCleanupDays = "password_reset_token_cleanup_days"
	KeyOtpTokenCleanupDays           = "otp_token_cleanup_days"
	KeyJobExecutionAuditCleanupDays  = "job_execution_audit_cleanup_days"
	KeyAccountStatusAuditCleanupDays = "account_status_audit_cleanup_days"
	KeyUnverifiedAccountCleanupDays  = "unverified_account_cleanup_days"
	KeyCleanupBatchSize              = "cleanup_batch_size"
)

// Defaults are seeded at deploy time when a key is absent.
var Defaults = []domain.Setting{
	{Key: KeyAccountInactivityDays, Value: "180", Description: "Days since last login after which an ACTIVE account is marked INACTIVE"},
	{Key: KeyInactivityBatchSize, Value: "500", Description: "Accounts updated per transaction by mark-inactive-accounts"},
	{Key: KeyPasswordResetTokenCleanupDays, Value: "7", Description: "Age in days after which password reset tokens are deleted, used or not"},
	{Key: KeyOtpTokenCleanupDays, Value: "7", Description: "Age in days after which OTP tokens are deleted"},
	{Key: KeyJobExecutionAuditCleanupDays, Value: "90", Description: "Age in days after which job execution audit rows are deleted"},
	{Key: KeyAccountStatusAuditCleanupDays, Value: "365", Description: "Age in days after which account status audit rows are deleted"},
	{Key: KeyUnverifiedAccountCleanupDays, Value: "30", Description: "Age in days after which never-logged-in UNVERIFIED accounts are deleted"},
	{Key: KeyCleanupBatchSize, Value: "500", Description: "Accounts deleted per transaction by cleanup-unverified-accounts"},
}

// ConfigurationMissingError is returned when a required key is absent from the settings table.
type ConfigurationMissingError struct {
	Key string
}

func (e *ConfigurationMissingError) Error() string {
	return "Configuration missing: " + e.Key
}

// InvalidValueError is returned when a key is present but its value cannot be used.
type InvalidValueError struct {
	Key   string
	Value string
	Want  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("Configuration invalid: %s=%q (want %s)", e.Key, e.Value, e.Want)
}

// Snapshot is a point-in-time copy of the settings table. The zero value has no keys.
type Snapshot struct {
	values map[string]string
}

// NewSnapshot builds a snapshot from entries. Later duplicates win.
func NewSnapshot(entries []*domain.Setting) Snapshot {
	values := make(map[string]string, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		values[e.Key] = e.Value
	}
	return Snapshot{values: values}
}

// String returns the raw value for key or a *ConfigurationMissingError.
func (s Snapshot) String(key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", &ConfigurationMissingError{Key: key}
	}
	return v, nil
}

// Days returns a non-negative whole number of days for key.
func (s Snapshot) Days(key string) (int, error) {
	n, err := s.integer(key)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &InvalidValueError{Key: key, Value: s.values[key], Want: "non-negative integer"}
	}
	return n, nil
}

// BatchSize returns a positive integer for key.
func (s Snapshot) BatchSize(key string) (int, error) {
	n, err := s.integer(key)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, &InvalidValueError{Key: key, Value: s.values[key], Want: "positive integer"}
	}
	return n, nil
}

func (s Snapshot) integer(key string) (int, error) {
	raw, err := s.String(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &InvalidValueError{Key: key, Value: raw, Want: "integer"}
	}
	return n, nil
}

// Lister is the minimal repository needed to load a snapshot.
type Lister interface {
	List(ctx context.Context) ([]*domain.Setting, error)
}

// Loader reads a fresh Snapshot per call; jobs call it once per invocation.
type Loader struct {
	repo Lister
}

// NewLoader returns a Loader over repo.
func NewLoader(repo Lister) *Loader {
	return &Loader{repo: repo}
}

// Snapshot loads every setting.
func (l *Loader) Snapshot(ctx context.Context) (Snapshot, error) {
	entries, err := l.repo.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(entries), nil
}

// Inserter is the minimal repository needed by EnsureDefaults.
type Inserter interface {
	InsertIfMissing(ctx context.Context, s *domain.Setting) (bool, error)
}

// EnsureDefaults inserts every default whose key is absent and returns how many were inserted.
// Existing values are never overwritten.
func EnsureDefaults(ctx context.Context, repo Inserter) (int, error) {
	inserted := 0
	for i := range Defaults {
		d := Defaults[i]
		ok, err := repo.InsertIfMissing(ctx, &d)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}
