package domain

import (
	"time"

	accountdomain "loyalty-accounts/internal/account/domain"
)

// StatusChange records one activity-status transition of an account. Rows are never updated.
type StatusChange struct {
	ID         string
	AccountID  string
	OldStatus  accountdomain.ActivityStatus
	NewStatus  accountdomain.ActivityStatus
	RecordedAt time.Time
}

// JobExecution records one run of a maintenance job. Rows are never updated.
type JobExecution struct {
	ID               string
	JobName          string
	ExecutionDate    time.Time // calendar day (UTC, midnight) the run started
	Success          bool
	RecordsProcessed int
	ErrorMessage     *string
	DurationMs       int64
	RecordedAt       time.Time
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
