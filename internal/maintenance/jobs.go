// Package maintenance runs the scheduled account and retention jobs and records one
// JobExecution row per run.
package maintenance

import (
	"context"
	"time"

	"loyalty-accounts/internal/settings"
)

// Job names accepted by Runner.Run.
const (
	JobMarkInactiveAccounts       = "mark-inactive-accounts"
	JobCleanupPasswordResetTokens = "cleanup-password-reset-tokens"
	JobCleanupOtpTokens           = "cleanup-otp-tokens"
	JobCleanupAccountStatusAudit  = "cleanup-account-status-audit"
	JobCleanupJobExecutionAudit   = "cleanup-job-execution-audit"
	JobCleanupUnverifiedAccounts  = "cleanup-unverified-accounts"
	JobRunAllCleanupJobs          = "run-all-cleanup-jobs"
)

// CleanupJobs are the sub-jobs of run-all-cleanup-jobs, in execution order.
var CleanupJobs = []string{
	JobCleanupPasswordResetTokens,
	JobCleanupOtpTokens,
	JobCleanupAccountStatusAudit,
	JobCleanupJobExecutionAudit,
	JobCleanupUnverifiedAccounts,
}

// JobNames lists every job in a stable order.
func JobNames() []string {
	names := []string{JobMarkInactiveAccounts}
	names = append(names, CleanupJobs...)
	return append(names, JobRunAllCleanupJobs)
}

// jobFunc does the work of one job and returns how many records it processed.
type jobFunc func(ctx context.Context, snap settings.Snapshot, now time.Time) (int, error)

// cutoffFor returns the instant rows must be strictly older than to be acted on.
func cutoffFor(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

func (r *Runner) jobTable() map[string]jobFunc {
	return map[string]jobFunc{
		JobMarkInactiveAccounts:       r.markInactiveAccounts,
		JobCleanupPasswordResetTokens: r.purgeByAge(settings.KeyPasswordResetTokenCleanupDays, r.deps.ResetTokens.DeleteCreatedBefore),
		JobCleanupOtpTokens:           r.purgeByAge(settings.KeyOtpTokenCleanupDays, r.deps.OtpTokens.DeleteCreatedBefore),
		JobCleanupAccountStatusAudit:  r.purgeByAge(settings.KeyAccountStatusAuditCleanupDays, r.deps.StatusAudit.DeleteRecordedBefore),
		JobCleanupJobExecutionAudit:   r.purgeByAge(settings.KeyJobExecutionAuditCleanupDays, r.deps.JobAudit.DeleteRecordedBefore),
		JobCleanupUnverifiedAccounts:  r.cleanupUnverifiedAccounts,
	}
}

// markInactiveAccounts deactivates ACTIVE accounts idle for longer than the threshold, one
// batch per unit of work, until a short batch shows nothing is left.
func (r *Runner) markInactiveAccounts(ctx context.Context, snap settings.Snapshot, now time.Time) (int, error) {
	days, err := snap.Days(settings.KeyAccountInactivityDays)
	if err != nil {
		return 0, err
	}
	batch, err := snap.BatchSize(settings.KeyInactivityBatchSize)
	if err != nil {
		return 0, err
	}
	return drainBatches(ctx, batch, func(ctx context.Context) (int, error) {
		return r.deps.Accounts.DeactivateIdleAccounts(ctx, cutoffFor(now, days), batch)
	})
}

// cleanupUnverifiedAccounts reaps never-logged-in UNVERIFIED accounts older than the threshold.
func (r *Runner) cleanupUnverifiedAccounts(ctx context.Context, snap settings.Snapshot, now time.Time) (int, error) {
	days, err := snap.Days(settings.KeyUnverifiedAccountCleanupDays)
	if err != nil {
		return 0, err
	}
	batch, err := snap.BatchSize(settings.KeyCleanupBatchSize)
	if err != nil {
		return 0, err
	}
	return drainBatches(ctx, batch, func(ctx context.Context) (int, error) {
		return r.deps.Accounts.PurgeUnverifiedAccounts(ctx, cutoffFor(now, days), batch)
	})
}

// purgeByAge builds a job that deletes rows older than the number of days stored under key.
func (r *Runner) purgeByAge(key string, deleteBefore func(context.Context, time.Time) (int64, error)) jobFunc {
	return func(ctx context.Context, snap settings.Snapshot, now time.Time) (int, error) {
		days, err := snap.Days(key)
		if err != nil {
			return 0, err
		}
		n, err := deleteBefore(ctx, cutoffFor(now, days))
		return int(n), err
	}
}

// drainBatches calls step until it handles fewer than batch records. Records from committed
// batches are counted even if a later batch fails.
func drainBatches(ctx context.Context, batch int, step func(context.Context) (int, error)) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := step(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n < batch {
			return total, nil
		}
	}
}
