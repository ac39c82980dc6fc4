package repository

import (
	"context"
	"time"

	"loyalty-accounts/internal/audit/domain"
)

// StatusRepository persists account status changes. There is no update method; rows are only
// inserted, and only removed by age.
type StatusRepository interface {
	Insert(ctx context.Context, c *domain.StatusChange) error
	// ListByAccount returns the account's changes oldest first.
	ListByAccount(ctx context.Context, accountID string) ([]*domain.StatusChange, error)
	// DeleteRecordedBefore removes rows recorded strictly before cutoff.
	DeleteRecordedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// JobRepository persists job execution records under the same insert-only rule.
type JobRepository interface {
	Insert(ctx context.Context, e *domain.JobExecution) error
	// LatestForDay returns the most recent execution of jobName on day, or nil.
	LatestForDay(ctx context.Context, jobName string, day time.Time) (*domain.JobExecution, error)
	// DeleteRecordedBefore removes rows recorded strictly before cutoff.
	DeleteRecordedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
