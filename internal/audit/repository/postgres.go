package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	accountdomain "loyalty-accounts/internal/account/domain"
	"loyalty-accounts/internal/audit/domain"
)

type statusChangeRow struct {
	ID         string    `db:"id"`
	AccountID  string    `db:"account_id"`
	OldStatus  string    `db:"old_status"`
	NewStatus  string    `db:"new_status"`
	RecordedAt time.Time `db:"recorded_at"`
}

type jobExecutionRow struct {
	ID               string         `db:"id"`
	JobName          string         `db:"job_name"`
	ExecutionDate    time.Time      `db:"execution_date"`
	Success          bool           `db:"success"`
	RecordsProcessed int            `db:"records_processed"`
	ErrorMessage     sql.NullString `db:"error_message"`
	DurationMs       int64          `db:"duration_ms"`
	RecordedAt       time.Time      `db:"recorded_at"`
}

// PostgresStatusRepository persists account status changes.
type PostgresStatusRepository struct {
	db sqlx.ExtContext
}

// NewPostgresStatusRepository returns a status audit repository backed by db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresStatusRepository(db sqlx.ExtContext) *PostgresStatusRepository {
	return &PostgresStatusRepository{db: db}
}

// Insert persists the change. The change must have ID set.
func (r *PostgresStatusRepository) Insert(ctx context.Context, c *domain.StatusChange) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account_status_audit (id, account_id, old_status, new_status, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.AccountID, string(c.OldStatus), string(c.NewStatus), c.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert account status audit: %w", err)
	}
	return nil
}

// ListByAccount returns the account's changes oldest first.
func (r *PostgresStatusRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.StatusChange, error) {
	var rows []statusChangeRow
	err := sqlx.SelectContext(ctx, r.db, &rows, `
		SELECT id, account_id, old_status, new_status, recorded_at
		FROM account_status_audit WHERE account_id = $1
		ORDER BY recorded_at, seq
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list account status audit: %w", err)
	}
	out := make([]*domain.StatusChange, len(rows))
	for i, row := range rows {
		out[i] = &domain.StatusChange{
			ID:         row.ID,
			AccountID:  row.AccountID,
			OldStatus:  accountdomain.ActivityStatus(row.OldStatus),
			NewStatus:  accountdomain.ActivityStatus(row.NewStatus),
			RecordedAt: row.RecordedAt,
		}
	}
	return out, nil
}

// DeleteRecordedBefore removes rows recorded strictly before cutoff.
func (r *PostgresStatusRepository) DeleteRecordedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return deleteBefore(ctx, r.db, "account_status_audit", cutoff)
}

// PostgresJobRepository persists job execution records.
type PostgresJobRepository struct {
	db sqlx.ExtContext
}

// NewPostgresJobRepository returns a job execution audit repository backed by db.
func NewPostgresJobRepository(db sqlx.ExtContext) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

// Insert persists the execution. The execution must have ID set.
func (r *PostgresJobRepository) Insert(ctx context.Context, e *domain.JobExecution) error {
	var msg sql.NullString
	if e.ErrorMessage != nil {
		msg = sql.NullString{String: *e.ErrorMessage, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO job_execution_audit
			(id, job_name, execution_date, success, records_processed, error_message, duration_ms, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.JobName, e.ExecutionDate, e.Success, e.RecordsProcessed, msg, e.DurationMs, e.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert job execution audit: %w", err)
	}
	return nil
}

// LatestForDay returns the most recent execution of jobName on day, or nil.
func (r *PostgresJobRepository) LatestForDay(ctx context.Context, jobName string, day time.Time) (*domain.JobExecution, error) {
	var row jobExecutionRow
	err := sqlx.GetContext(ctx, r.db, &row, `
		SELECT id, job_name, execution_date, success, records_processed, error_message, duration_ms, recorded_at
		FROM job_execution_audit
		WHERE job_name = $1 AND execution_date = $2
		ORDER BY recorded_at DESC
		LIMIT 1
	`, jobName, domain.Day(day))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest job execution: %w", err)
	}
	e := &domain.JobExecution{
		ID:               row.ID,
		JobName:          row.JobName,
		ExecutionDate:    domain.Day(row.ExecutionDate),
		Success:          row.Success,
		RecordsProcessed: row.RecordsProcessed,
		DurationMs:       row.DurationMs,
		RecordedAt:       row.RecordedAt,
	}
	if row.ErrorMessage.Valid {
		m := row.ErrorMessage.String
		e.ErrorMessage = &m
	}
	return e, nil
}

// DeleteRecordedBefore removes rows recorded strictly before cutoff.
func (r *PostgresJobRepository) DeleteRecordedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return deleteBefore(ctx, r.db, "job_execution_audit", cutoff)
}

// deleteBefore is only called with the two audit table names above.
func deleteBefore(ctx context.Context, db sqlx.ExtContext, table string, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete old %s rows affected: %w", table, err)
	}
	return n, nil
}
