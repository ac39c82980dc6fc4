// seed inserts the documented runtime settings defaults and, with -demo, a sample customer for
// local testing. Idempotent: existing settings are never overwritten and the demo customer is
// skipped when its email is already registered.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"loyalty-accounts/internal/audit"
	"loyalty-accounts/internal/config"
	"loyalty-accounts/internal/consistency"
	"loyalty-accounts/internal/db"
	"loyalty-accounts/internal/platform/logger"
	"loyalty-accounts/internal/security"
	"loyalty-accounts/internal/settings"
	"loyalty-accounts/internal/store"
)

func main() {
	demo := flag.Bool("demo", false, "Also create a verified demo customer with an account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()
	pg := store.NewPostgres(conn)

	inserted, err := settings.EnsureDefaults(ctx, pg.Settings())
	if err != nil {
		log.Fatal("seed settings failed", zap.Error(err))
	}
	log.Info("settings seeded", zap.Int("inserted", inserted), zap.Int("defaults", len(settings.Defaults)))

	if !*demo {
		return
	}
	if strings.EqualFold(cfg.Env, "production") {
		log.Fatal("refusing to seed demo data with APP_ENV=production")
	}
	svc := consistency.NewService(pg, audit.NewStatusLog(), log)
	acct, err := seedDemo(ctx, pg, svc, security.NewPasswordHasher(cfg.BcryptCost))
	if err != nil {
		log.Fatal("seed demo customer failed", zap.Error(err))
	}
	if acct == nil {
		log.Info("demo customer already present, skipping", zap.String("email", demoEmail))
		return
	}
	log.Info("demo customer seeded", zap.String("account_id", acct.ID), zap.String("username", acct.Username))
	fmt.Printf("Demo login: %s / %s\n", acct.Username, demoPassword)
}
