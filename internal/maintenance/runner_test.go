package maintenance

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	accountdomain "loyalty-accounts/internal/account/domain"
	"loyalty-accounts/internal/audit"
	auditdomain "loyalty-accounts/internal/audit/domain"
	"loyalty-accounts/internal/consistency"
	resettokendomain "loyalty-accounts/internal/resettoken/domain"
	"loyalty-accounts/internal/settings"
	settingsdomain "loyalty-accounts/internal/settings/domain"
	"loyalty-accounts/internal/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type recordingEmitter struct {
	got []*auditdomain.JobExecution
}

func (r *recordingEmitter) Emit(_ context.Context, exec *auditdomain.JobExecution) error {
	r.got = append(r.got, exec)
	return nil
}

type fixture struct {
	mem     *store.Memory
	svc     *consistency.Service
	runner  *Runner
	clock   *fakeClock
	reader  *sdkmetric.ManualReader
	spans   *tracetest.SpanRecorder
	emitter *recordingEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		mem:     store.NewMemory(),
		clock:   &fakeClock{t: time.Date(2025, 9, 1, 3, 0, 0, 0, time.UTC)},
		reader:  sdkmetric.NewManualReader(),
		spans:   tracetest.NewSpanRecorder(),
		emitter: &recordingEmitter{},
	}
	f.svc = consistency.NewService(f.mem, audit.NewStatusLog(), nil, consistency.WithClock(f.clock.Now))
	_, err := settings.EnsureDefaults(ctx, f.mem.Settings())
	require.NoError(t, err)

	f.runner, err = NewRunner(f.deps(f.svc),
		WithClock(f.clock.Now),
		WithEmitter(f.emitter),
		WithMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(f.reader))),
		WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(f.spans))),
	)
	require.NoError(t, err)
	return f
}

func (f *fixture) deps(accounts AccountMaintainer) Deps {
	return Deps{
		Accounts:    accounts,
		ResetTokens: f.mem.ResetTokens(),
		OtpTokens:   f.mem.OtpTokens(),
		StatusAudit: f.mem.StatusAudit(),
		JobAudit:    f.mem.JobAudit(),
		Settings:    settings.NewLoader(f.mem.Settings()),
	}
}

func (f *fixture) setSetting(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, f.mem.Settings().Upsert(context.Background(), &settingsdomain.Setting{Key: key, Value: value}))
}

func (f *fixture) removeSetting(t *testing.T, key string) {
	t.Helper()
	require.NoError(t, f.mem.Settings().Delete(context.Background(), key))
}

func (f *fixture) newAccount(t *testing.T, address string) *accountdomain.Account {
	t.Helper()
	ctx := context.Background()
	email, err := f.svc.CreateEmailContact(ctx, address)
	require.NoError(t, err)
	profile, err := f.svc.CreateProfile(ctx, "First", "Last", &email.ID, nil)
	require.NoError(t, err)
	acc, err := f.svc.CreateAccount(ctx, profile.ID, "hash")
	require.NoError(t, err)
	return acc
}

func (f *fixture) account(t *testing.T, id string) *accountdomain.Account {
	t.Helper()
	a, err := f.mem.Accounts().GetByID(context.Background(), id)
	require.NoError(t, err)
	return a
}

func TestCleanupUnverifiedAccounts_ByAge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := f.clock.Now()

	f.clock.t = now.AddDate(0, 0, -45)
	old := f.newAccount(t, "old@x.com")
	f.clock.t = now.AddDate(0, 0, -10)
	young := f.newAccount(t, "young@x.com")
	f.clock.t = now

	exec, err := f.runner.Run(ctx, JobCleanupUnverifiedAccounts)
	require.NoError(t, err)
	assert.True(t, exec.Success)
	assert.Equal(t, 1, exec.RecordsProcessed)
	assert.Nil(t, exec.ErrorMessage)

	assert.Nil(t, f.account(t, old.ID))
	assert.NotNil(t, f.account(t, young.ID))
}

func TestCleanupUnverifiedAccounts_KeepsLoggedInAndVerified(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := f.clock.Now()

	f.clock.t = now.AddDate(0, 0, -90)
	loggedIn := f.newAccount(t, "login@x.com")
	require.NoError(t, f.svc.RecordLogin(ctx, loggedIn.ID, f.clock.Now()))
	verified := f.newAccount(t, "verified@x.com")
	p, err := f.mem.Profiles().GetByID(ctx, verified.CustomerID)
	require.NoError(t, err)
	require.NoError(t, f.svc.SetEmailVerified(ctx, *p.EmailContactID, true))
	f.clock.t = now

	exec, err := f.runner.Run(ctx, JobCleanupUnverifiedAccounts)
	require.NoError(t, err)
	assert.True(t, exec.Success)
	assert.Zero(t, exec.RecordsProcessed)
	assert.NotNil(t, f.account(t, loggedIn.ID))
	assert.NotNil(t, f.account(t, verified.ID))
}

func TestMarkInactive_MissingConfiguration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acc := f.newAccount(t, "idle@x.com")
	require.NoError(t, f.svc.RecordLogin(ctx, acc.ID, f.clock.Now().AddDate(-2, 0, 0)))
	f.removeSetting(t, settings.KeyAccountInactivityDays)

	exec, err := f.runner.Run(ctx, JobMarkInactiveAccounts)
	require.NoError(t, err)
	assert.False(t, exec.Success)
	require.NotNil(t, exec.ErrorMessage)
	assert.Equal(t, "Configuration missing: account_inactivity_days", *exec.ErrorMessage)
	assert.Equal(t, accountdomain.ActivityStatusActive, f.account(t, acc.ID).ActivityStatus)

	latest, err := f.runner.LatestRun(ctx, JobMarkInactiveAccounts, f.clock.Now())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, exec.ID, latest.ID)
}

func TestMarkInactive_Batches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setSetting(t, settings.KeyInactivityBatchSize, "2")

	var ids []string
	for i := 0; i < 5; i++ {
		acc := f.newAccount(t, fmt.Sprintf("idle%d@x.com", i))
		require.NoError(t, f.svc.RecordLogin(ctx, acc.ID, f.clock.Now().AddDate(0, 0, -181-i)))
		ids = append(ids, acc.ID)
	}
	active := f.newAccount(t, "active@x.com")
	require.NoError(t, f.svc.RecordLogin(ctx, active.ID, f.clock.Now().AddDate(0, 0, -1)))
	never := f.newAccount(t, "never@x.com")

	exec, err := f.runner.Run(ctx, JobMarkInactiveAccounts)
	require.NoError(t, err)
	assert.True(t, exec.Success)
	assert.Equal(t, 5, exec.RecordsProcessed)

	for _, id := range ids {
		assert.Equal(t, accountdomain.ActivityStatusInactive, f.account(t, id).ActivityStatus)
		rows, err := f.mem.StatusAudit().ListByAccount(ctx, id)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	}
	assert.Equal(t, accountdomain.ActivityStatusActive, f.account(t, active.ID).ActivityStatus)
	assert.Equal(t, accountdomain.ActivityStatusActive, f.account(t, never.ID).ActivityStatus)

	again, err := f.runner.Run(ctx, JobMarkInactiveAccounts)
	require.NoError(t, err)
	assert.Zero(t, again.RecordsProcessed)
}

func TestRunAll_IsolatesFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.removeSetting(t, settings.KeyOtpTokenCleanupDays)

	master, err := f.runner.Run(ctx, JobRunAllCleanupJobs)
	require.NoError(t, err)
	assert.False(t, master.Success)
	require.NotNil(t, master.ErrorMessage)
	assert.Contains(t, *master.ErrorMessage, "cleanup job(s) failed")
	assert.Equal(t, "1 cleanup job(s) failed", *master.ErrorMessage)

	for _, name := range CleanupJobs {
		exec, err := f.runner.LatestRun(ctx, name, f.clock.Now())
		require.NoError(t, err)
		require.NotNil(t, exec, "sub-job %s must record a row", name)
		if name == JobCleanupOtpTokens {
			assert.False(t, exec.Success)
			assert.Equal(t, "Configuration missing: otp_token_cleanup_days", *exec.ErrorMessage)
		} else {
			assert.True(t, exec.Success, "sub-job %s", name)
		}
	}
	latestMaster, err := f.runner.LatestRun(ctx, JobRunAllCleanupJobs, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, master.ID, latestMaster.ID)

	// Five sub-job rows plus the master row.
	assert.Len(t, f.emitter.got, len(CleanupJobs)+1)
	inactive, err := f.runner.LatestRun(ctx, JobMarkInactiveAccounts, f.clock.Now())
	require.NoError(t, err)
	assert.Nil(t, inactive, "run-all does not include mark-inactive-accounts")
}

func TestRunAll_SumsRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := f.clock.Now()
	for i, created := range []time.Time{now.AddDate(0, 0, -8), now.AddDate(0, 0, -9), now.AddDate(0, 0, -1)} {
		require.NoError(t, f.mem.ResetTokens().Create(ctx, &resettokendomain.Token{
			ID: fmt.Sprintf("t%d", i), AccountID: "acc", TokenValue: fmt.Sprintf("v%d", i), CreatedAt: created,
		}))
	}

	master, err := f.runner.Run(ctx, JobRunAllCleanupJobs)
	require.NoError(t, err)
	assert.True(t, master.Success)
	assert.Nil(t, master.ErrorMessage)
	assert.Equal(t, 2, master.RecordsProcessed)
}

func TestCleanupPasswordResetTokens_StrictlyOlder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := f.clock.Now()
	cutoff := now.Add(-7 * 24 * time.Hour)
	used := cutoff.Add(-time.Hour)

	tokens := []*resettokendomain.Token{
		{ID: "older-used", AccountID: "a", TokenValue: "1", CreatedAt: cutoff.Add(-time.Second), UsedAt: &used, ExpiresAt: now.Add(time.Hour)},
		{ID: "at-cutoff", AccountID: "a", TokenValue: "2", CreatedAt: cutoff},
		{ID: "newer", AccountID: "a", TokenValue: "3", CreatedAt: cutoff.Add(time.Second)},
	}
	for _, tok := range tokens {
		require.NoError(t, f.mem.ResetTokens().Create(ctx, tok))
	}

	exec, err := f.runner.Run(ctx, JobCleanupPasswordResetTokens)
	require.NoError(t, err)
	assert.True(t, exec.Success)
	assert.Equal(t, 1, exec.RecordsProcessed)

	n, err := f.mem.ResetTokens().DeleteCreatedBefore(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "at-cutoff and newer must survive the job")
}

func TestCleanupAuditTables(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := f.clock.Now()

	require.NoError(t, f.mem.StatusAudit().Insert(ctx, &auditdomain.StatusChange{ID: "s-old", AccountID: "a", RecordedAt: now.AddDate(-2, 0, 0)}))
	require.NoError(t, f.mem.StatusAudit().Insert(ctx, &auditdomain.StatusChange{ID: "s-new", AccountID: "a", RecordedAt: now.AddDate(0, -1, 0)}))
	require.NoError(t, f.mem.JobAudit().Insert(ctx, &auditdomain.JobExecution{ID: "j-old", JobName: "x", RecordedAt: now.AddDate(0, 0, -91)}))

	exec, err := f.runner.Run(ctx, JobCleanupAccountStatusAudit)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.RecordsProcessed)
	rows, err := f.mem.StatusAudit().ListByAccount(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "s-new", rows[0].ID)

	exec, err = f.runner.Run(ctx, JobCleanupJobExecutionAudit)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.RecordsProcessed)
}

func TestRun_InvalidValueIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.setSetting(t, settings.KeyCleanupBatchSize, "0")

	exec, err := f.runner.Run(context.Background(), JobCleanupUnverifiedAccounts)
	require.NoError(t, err)
	assert.False(t, exec.Success)
	require.NotNil(t, exec.ErrorMessage)
	assert.True(t, strings.Contains(*exec.ErrorMessage, settings.KeyCleanupBatchSize))
}

func TestRun_UnknownJob(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner.Run(context.Background(), "defragment-everything")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

type failingMaintainer struct {
	err error
}

func (m failingMaintainer) DeactivateIdleAccounts(context.Context, time.Time, int) (int, error) {
	return 0, m.err
}

func (m failingMaintainer) PurgeUnverifiedAccounts(context.Context, time.Time, int) (int, error) {
	return 0, m.err
}

func TestRun_StorageErrorIsRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r, err := NewRunner(f.deps(failingMaintainer{err: errors.New("deadlock detected")}), WithClock(f.clock.Now))
	require.NoError(t, err)

	exec, err := r.Run(ctx, JobMarkInactiveAccounts)
	require.NoError(t, err)
	assert.False(t, exec.Success)
	assert.Equal(t, "deadlock detected", *exec.ErrorMessage)
}

func TestRun_ConnectivityErrorPropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lost := fmt.Errorf("list accounts: %w", driver.ErrBadConn)
	r, err := NewRunner(f.deps(failingMaintainer{err: lost}), WithClock(f.clock.Now))
	require.NoError(t, err)

	_, err = r.Run(ctx, JobMarkInactiveAccounts)
	require.ErrorIs(t, err, driver.ErrBadConn)
	latest, err := r.LatestRun(ctx, JobMarkInactiveAccounts, f.clock.Now())
	require.NoError(t, err)
	assert.Nil(t, latest, "an aborted run records nothing")

	_, err = r.Run(ctx, JobRunAllCleanupJobs)
	require.ErrorIs(t, err, driver.ErrBadConn)
	master, err := r.LatestRun(ctx, JobRunAllCleanupJobs, f.clock.Now())
	require.NoError(t, err)
	assert.Nil(t, master)
}

func TestRun_EveryRunAppendsRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.runner.Run(ctx, JobCleanupOtpTokens)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	second, err := f.runner.Run(ctx, JobCleanupOtpTokens)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	latest, err := f.runner.LatestRun(ctx, JobCleanupOtpTokens, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, auditdomain.Day(f.clock.Now()), latest.ExecutionDate)
}

func TestRun_MetricsAndSpans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.removeSetting(t, settings.KeyOtpTokenCleanupDays)

	_, err := f.runner.Run(ctx, JobRunAllCleanupJobs)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(ctx, &rm))
	runs := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "maintenance_job_runs_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				job, _ := dp.Attributes.Value(attribute.Key("job"))
				success, _ := dp.Attributes.Value(attribute.Key("success"))
				runs[fmt.Sprintf("%s/%t", job.AsString(), success.AsBool())] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), runs["cleanup-otp-tokens/false"])
	assert.Equal(t, int64(1), runs["cleanup-password-reset-tokens/true"])
	assert.Equal(t, int64(1), runs["run-all-cleanup-jobs/false"])

	names := map[string]bool{}
	for _, s := range f.spans.Ended() {
		names[s.Name()] = true
	}
	assert.True(t, names["maintenance.run-all-cleanup-jobs"])
	for _, job := range CleanupJobs {
		assert.True(t, names["maintenance."+job], "missing span for %s", job)
	}
}

func TestNewRunner_RequiresDeps(t *testing.T) {
	_, err := NewRunner(Deps{})
	assert.Error(t, err)
}

func TestJobNames(t *testing.T) {
	names := JobNames()
	assert.Len(t, names, 7)
	assert.Equal(t, JobMarkInactiveAccounts, names[0])
	assert.Equal(t, JobRunAllCleanupJobs, names[len(names)-1])
}

func TestCutoffFor(t *testing.T) {
	now := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), cutoffFor(now, 30))
	assert.Equal(t, now, cutoffFor(now, 0))
}
