// worker runs one maintenance job and exits. A scheduler invokes it, e.g.
//
//	go run ./cmd/worker -job run-all-cleanup-jobs
//
// The exit code is non-zero only when the run could not be recorded. A job that ran and failed
// is recorded with success=false and still exits 0; see job_execution_audit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loyalty-accounts/internal/audit"
	"loyalty-accounts/internal/config"
	"loyalty-accounts/internal/consistency"
	"loyalty-accounts/internal/db"
	"loyalty-accounts/internal/maintenance"
	"loyalty-accounts/internal/platform/logger"
	"loyalty-accounts/internal/settings"
	"loyalty-accounts/internal/store"
	"loyalty-accounts/internal/telemetry"
	telemetryotel "loyalty-accounts/internal/telemetry/otel"
	"loyalty-accounts/internal/telemetry/producer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	job := flag.String("job", "", "Job to run: "+strings.Join(maintenance.JobNames(), ", "))
	status := flag.Bool("status", false, "Print today's latest recorded run of -job instead of running it")
	list := flag.Bool("list", false, "List job names and exit")
	flag.Parse()

	if *list {
		for _, name := range maintenance.JobNames() {
			fmt.Println(name)
		}
		return
	}
	if *job == "" {
		fmt.Fprintln(os.Stderr, "worker: -job is required")
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(*job, *status))
}

func run(job string, status bool) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		return 1
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		ServiceName: cfg.ServiceName,
		Logger:      log,
	})
	if err != nil {
		log.Error("otel setup failed", zap.Error(err))
		return 1
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("otel shutdown", zap.Error(err))
		}
	}()

	kafka := producer.NewKafkaProducer(cfg.JobEventsKafkaBrokersList(), cfg.JobEventsKafkaTopic, log)
	defer func() {
		if err := kafka.Close(); err != nil {
			log.Warn("kafka close", zap.Error(err))
		}
	}()
	emitter := telemetry.Multi(telemetryotel.NewJobEmitter(providers.LoggerProvider))
	if kafka != nil {
		emitter = telemetry.Multi(emitter, kafka)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("db open failed", zap.Error(err))
		return 1
	}
	defer conn.Close()

	pg := store.NewPostgres(conn)
	svc := consistency.NewService(pg, audit.NewStatusLog(), log)
	runner, err := maintenance.NewRunner(maintenance.Deps{
		Accounts:    svc,
		ResetTokens: pg.ResetTokens(),
		OtpTokens:   pg.OtpTokens(),
		StatusAudit: pg.StatusAudit(),
		JobAudit:    pg.JobAudit(),
		Settings:    settings.NewLoader(pg.Settings()),
	},
		maintenance.WithLogger(log),
		maintenance.WithEmitter(emitter),
		maintenance.WithMeterProvider(providers.MeterProvider),
		maintenance.WithTracerProvider(providers.TracerProvider),
	)
	if err != nil {
		log.Error("runner setup failed", zap.Error(err))
		return 1
	}

	if status {
		return printStatus(ctx, runner, job, log)
	}

	exec, err := runner.Run(ctx, job)
	if err != nil {
		if errors.Is(err, maintenance.ErrUnknownJob) {
			fmt.Fprintln(os.Stderr, "worker:", err)
			return 2
		}
		log.Error("job could not be recorded", zap.String("job", job), zap.Error(err))
		return 1
	}
	fields := []zap.Field{
		zap.String("job", exec.JobName),
		zap.String("execution_id", exec.ID),
		zap.Bool("success", exec.Success),
		zap.Int("records_processed", exec.RecordsProcessed),
	}
	if exec.ErrorMessage != nil {
		fields = append(fields, zap.String("error", *exec.ErrorMessage))
	}
	log.Info("worker finished", fields...)
	return 0
}

func printStatus(ctx context.Context, runner *maintenance.Runner, job string, log *zap.Logger) int {
	exec, err := runner.LatestRun(ctx, job, time.Now().UTC())
	if err != nil {
		log.Error("status lookup failed", zap.String("job", job), zap.Error(err))
		return 1
	}
	if exec == nil {
		fmt.Printf("%s: no run recorded today\n", job)
		return 0
	}
	outcome := "succeeded"
	if !exec.Success {
		outcome = "failed"
	}
	fmt.Printf("%s: %s at %s, %d record(s), %dms", job, outcome, exec.RecordedAt.Format(time.RFC3339), exec.RecordsProcessed, exec.DurationMs)
	if exec.ErrorMessage != nil {
		fmt.Printf(": %s", *exec.ErrorMessage)
	}
	fmt.Println()
	return 0
}
