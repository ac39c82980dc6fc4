package maintenance

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	auditdomain "loyalty-accounts/internal/audit/domain"
)

type jobMetrics struct {
	runs     metric.Int64Counter
	records  metric.Int64Counter
	duration metric.Int64Histogram
}

func newJobMetrics(m metric.Meter) (*jobMetrics, error) {
	runs, err := m.Int64Counter("maintenance_job_runs_total",
		metric.WithDescription("Maintenance job executions by job and outcome"))
	if err != nil {
		return nil, err
	}
	records, err := m.Int64Counter("maintenance_job_records_processed_total",
		metric.WithDescription("Records processed by maintenance jobs"))
	if err != nil {
		return nil, err
	}
	duration, err := m.Int64Histogram("maintenance_job_duration_ms",
		metric.WithDescription("Maintenance job duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &jobMetrics{runs: runs, records: records, duration: duration}, nil
}

func (m *jobMetrics) observe(ctx context.Context, exec *auditdomain.JobExecution) {
	job := attribute.String("job", exec.JobName)
	m.runs.Add(ctx, 1, metric.WithAttributes(job, attribute.Bool("success", exec.Success)))
	m.records.Add(ctx, int64(exec.RecordsProcessed), metric.WithAttributes(job))
	m.duration.Record(ctx, exec.DurationMs, metric.WithAttributes(job))
}
