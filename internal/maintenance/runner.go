package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	auditdomain "loyalty-accounts/internal/audit/domain"
	auditrepo "loyalty-accounts/internal/audit/repository"
	"loyalty-accounts/internal/db"
	"loyalty-accounts/internal/platform/logger"
	"loyalty-accounts/internal/settings"
	"loyalty-accounts/internal/telemetry"
)

// ErrUnknownJob is returned by Run for a name that is not a job.
var ErrUnknownJob = errors.New("unknown maintenance job")

// AccountMaintainer applies one batch of account maintenance in a single unit of work.
// consistency.Service implements it.
type AccountMaintainer interface {
	DeactivateIdleAccounts(ctx context.Context, cutoff time.Time, limit int) (int, error)
	PurgeUnverifiedAccounts(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// TokenPurger deletes tokens created strictly before cutoff.
type TokenPurger interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditPurger deletes audit rows recorded strictly before cutoff.
type AuditPurger interface {
	DeleteRecordedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SettingsSource loads a fresh settings snapshot. *settings.Loader implements it.
type SettingsSource interface {
	Snapshot(ctx context.Context) (settings.Snapshot, error)
}

// Deps are the collaborators every job needs. All fields are required.
type Deps struct {
	Accounts    AccountMaintainer
	ResetTokens TokenPurger
	OtpTokens   TokenPurger
	StatusAudit AuditPurger
	JobAudit    auditrepo.JobRepository
	Settings    SettingsSource
}

func (d Deps) validate() error {
	switch {
	case d.Accounts == nil:
		return errors.New("maintenance: Accounts is required")
	case d.ResetTokens == nil:
		return errors.New("maintenance: ResetTokens is required")
	case d.OtpTokens == nil:
		return errors.New("maintenance: OtpTokens is required")
	case d.StatusAudit == nil:
		return errors.New("maintenance: StatusAudit is required")
	case d.JobAudit == nil:
		return errors.New("maintenance: JobAudit is required")
	case d.Settings == nil:
		return errors.New("maintenance: Settings is required")
	}
	return nil
}

// Runner dispatches jobs by name and records their outcome.
type Runner struct {
	deps    Deps
	jobs    map[string]jobFunc
	logger  *zap.Logger
	emitter telemetry.JobEventEmitter
	tracer  trace.Tracer
	metrics *jobMetrics
	now     func() time.Time
	newID   func() string
}

type runnerOptions struct {
	logger         *zap.Logger
	emitter        telemetry.JobEventEmitter
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	now            func() time.Time
	newID          func() string
}

// Option configures a Runner.
type Option func(*runnerOptions)

// WithLogger sets the zap logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option { return func(o *runnerOptions) { o.logger = l } }

// WithEmitter publishes every recorded execution. Default discards.
func WithEmitter(e telemetry.JobEventEmitter) Option {
	return func(o *runnerOptions) { o.emitter = e }
}

// WithMeterProvider sets where job metrics go. Default is the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *runnerOptions) { o.meterProvider = mp }
}

// WithTracerProvider sets where job spans go. Default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *runnerOptions) { o.tracerProvider = tp }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(o *runnerOptions) { o.now = now } }

// WithIDGenerator replaces the random UUID generator for execution rows.
func WithIDGenerator(newID func() string) Option {
	return func(o *runnerOptions) { o.newID = newID }
}

const instrumentationName = "loyalty-accounts/internal/maintenance"

// NewRunner validates deps and builds a Runner.
func NewRunner(deps Deps, opts ...Option) (*Runner, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	o := runnerOptions{
		emitter:        telemetry.Noop{},
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
		now:            func() time.Time { return time.Now().UTC() },
		newID:          func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.emitter == nil {
		o.emitter = telemetry.Noop{}
	}
	m, err := newJobMetrics(o.meterProvider.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	r := &Runner{
		deps:    deps,
		logger:  logger.OrNop(o.logger),
		emitter: o.emitter,
		tracer:  o.tracerProvider.Tracer(instrumentationName),
		metrics: m,
		now:     o.now,
		newID:   o.newID,
	}
	r.jobs = r.jobTable()
	return r, nil
}

// Run executes the named job once and returns its recorded execution. Job failures are recorded
// and returned in the row, not as an error. An error means nothing could be recorded: an unknown
// job, an unrecoverable connectivity failure or a failure writing the row itself.
func (r *Runner) Run(ctx context.Context, name string) (*auditdomain.JobExecution, error) {
	if name == JobRunAllCleanupJobs {
		return r.runAll(ctx)
	}
	if _, ok := r.jobs[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return r.runJob(ctx, name)
}

// LatestRun returns the most recent execution of name on the calendar day of day, or nil.
func (r *Runner) LatestRun(ctx context.Context, name string, day time.Time) (*auditdomain.JobExecution, error) {
	return r.deps.JobAudit.LatestForDay(ctx, name, day)
}

func (r *Runner) runJob(ctx context.Context, name string) (*auditdomain.JobExecution, error) {
	ctx, span := r.tracer.Start(ctx, "maintenance."+name, trace.WithAttributes(attribute.String("job.name", name)))
	defer span.End()

	start := r.now()
	n, err := r.execute(ctx, name, start)
	if err != nil && db.IsConnectivityError(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "connectivity")
		r.logger.Error("maintenance job aborted", zap.String("job", name), zap.Error(err))
		return nil, err
	}
	return r.record(ctx, span, name, start, n, err)
}

func (r *Runner) execute(ctx context.Context, name string, now time.Time) (int, error) {
	snap, err := r.deps.Settings.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return r.jobs[name](ctx, snap, now)
}

// runAll runs every cleanup job in isolation. Each records its own row; a failed sub-job does
// not stop the rest. The master row fails when any sub-job failed.
func (r *Runner) runAll(ctx context.Context) (*auditdomain.JobExecution, error) {
	ctx, span := r.tracer.Start(ctx, "maintenance."+JobRunAllCleanupJobs,
		trace.WithAttributes(attribute.String("job.name", JobRunAllCleanupJobs)))
	defer span.End()

	start := r.now()
	total, failed := 0, 0
	for _, name := range CleanupJobs {
		exec, err := r.runJob(ctx, name)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sub-job aborted")
			return nil, err
		}
		total += exec.RecordsProcessed
		if !exec.Success {
			failed++
		}
	}
	var runErr error
	if failed > 0 {
		runErr = fmt.Errorf("%d cleanup job(s) failed", failed)
	}
	return r.record(ctx, span, JobRunAllCleanupJobs, start, total, runErr)
}

// record writes the execution row, then reports it to metrics, logs and the emitter.
func (r *Runner) record(ctx context.Context, span trace.Span, name string, start time.Time, n int, runErr error) (*auditdomain.JobExecution, error) {
	end := r.now()
	exec := &auditdomain.JobExecution{
		ID:               r.newID(),
		JobName:          name,
		ExecutionDate:    auditdomain.Day(start),
		Success:          runErr == nil,
		RecordsProcessed: n,
		DurationMs:       end.Sub(start).Milliseconds(),
		RecordedAt:       end,
	}
	if runErr != nil {
		msg := runErr.Error()
		exec.ErrorMessage = &msg
		span.RecordError(runErr)
		span.SetStatus(codes.Error, msg)
	}
	span.SetAttributes(
		attribute.Bool("job.success", exec.Success),
		attribute.Int("job.records_processed", n),
	)

	if err := r.deps.JobAudit.Insert(ctx, exec); err != nil {
		r.logger.Error("maintenance job outcome not recorded", zap.String("job", name), zap.Error(err))
		return nil, fmt.Errorf("record %s execution: %w", name, err)
	}

	r.metrics.observe(ctx, exec)
	fields := []zap.Field{
		zap.String("job", name),
		zap.Bool("success", exec.Success),
		zap.Int("records_processed", n),
		zap.Int64("duration_ms", exec.DurationMs),
	}
	if runErr != nil {
		r.logger.Warn("maintenance job failed", append(fields, zap.Error(runErr))...)
	} else {
		r.logger.Info("maintenance job finished", fields...)
	}
	if err := r.emitter.Emit(ctx, exec); err != nil {
		r.logger.Warn("job event not published", zap.String("job", name), zap.Error(err))
	}
	return exec, nil
}
