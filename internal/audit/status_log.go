// Package audit records account activity-status transitions.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	accountdomain "loyalty-accounts/internal/account/domain"
	"loyalty-accounts/internal/audit/domain"
)

// StatusInserter is the only write the log needs. Callers pass the repository bound to their
// transaction so the audit row commits or aborts with the status write.
type StatusInserter interface {
	Insert(ctx context.Context, c *domain.StatusChange) error
}

// StatusLog appends one StatusChange per real activity-status transition.
type StatusLog struct {
	newID func() string
}

// NewStatusLog returns a StatusLog that assigns random UUIDs.
func NewStatusLog() *StatusLog {
	return &StatusLog{newID: func() string { return uuid.New().String() }}
}

// Record inserts a StatusChange when oldStatus != newStatus and reports whether it did.
// Unlike best-effort event logging, a failed insert is returned so the caller's transaction aborts.
func (l *StatusLog) Record(ctx context.Context, repo StatusInserter, accountID string, oldStatus, newStatus accountdomain.ActivityStatus, at time.Time) (bool, error) {
	if oldStatus == newStatus {
		return false, nil
	}
	if repo == nil {
		return false, errors.New("audit: status repository is nil")
	}
	c := &domain.StatusChange{
		ID:         l.newID(),
		AccountID:  accountID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		RecordedAt: at.UTC(),
	}
	if err := repo.Insert(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}
