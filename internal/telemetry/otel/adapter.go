package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	auditdomain "loyalty-accounts/internal/audit/domain"
	"loyalty-accounts/internal/telemetry"
)

// recordEmitter is the part of otellog.Logger the adapter uses.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewJobEmitter returns a JobEventEmitter that writes one OTel log record per job execution.
// A nil provider yields telemetry.Noop.
func NewJobEmitter(provider *sdklog.LoggerProvider) telemetry.JobEventEmitter {
	if provider == nil {
		return telemetry.Noop{}
	}
	return &jobEmitter{logger: provider.Logger("loyalty-accounts.maintenance")}
}

type jobEmitter struct {
	logger recordEmitter
}

// Emit maps the execution to a log record: INFO for success, ERROR with the message for failure.
func (e *jobEmitter) Emit(ctx context.Context, exec *auditdomain.JobExecution) error {
	if exec == nil {
		return nil
	}
	e.logger.Emit(ctx, jobRecord(exec))
	return nil
}

func jobRecord(exec *auditdomain.JobExecution) otellog.Record {
	rec := otellog.Record{}
	ts := exec.RecordedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetEventName("maintenance.job_execution")
	if exec.Success {
		rec.SetSeverity(otellog.SeverityInfo)
		rec.SetSeverityText("INFO")
		rec.SetBody(otellog.StringValue(exec.JobName + " succeeded"))
	} else {
		rec.SetSeverity(otellog.SeverityError)
		rec.SetSeverityText("ERROR")
		rec.SetBody(otellog.StringValue(exec.JobName + " failed"))
	}
	rec.AddAttributes(
		otellog.String("job.execution_id", exec.ID),
		otellog.String("job.name", exec.JobName),
		otellog.String("job.execution_date", exec.ExecutionDate.Format(time.DateOnly)),
		otellog.Bool("job.success", exec.Success),
		otellog.Int("job.records_processed", exec.RecordsProcessed),
		otellog.Int64("job.duration_ms", exec.DurationMs),
	)
	if exec.ErrorMessage != nil {
		rec.AddAttributes(otellog.String("job.error", *exec.ErrorMessage))
	}
	return rec
}
