// Package store binds the repositories to a backend and runs them in units of work.
package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	accountrepo "loyalty-accounts/internal/account/repository"
	auditrepo "loyalty-accounts/internal/audit/repository"
	"loyalty-accounts/internal/consistency"
	contactrepo "loyalty-accounts/internal/contact/repository"
	customerrepo "loyalty-accounts/internal/customer/repository"
	"loyalty-accounts/internal/db"
	otprepo "loyalty-accounts/internal/otp/repository"
	resettokenrepo "loyalty-accounts/internal/resettoken/repository"
	settingsrepo "loyalty-accounts/internal/settings/repository"
)

// pgStores builds Postgres repositories over one executor (the pool or a transaction).
type pgStores struct {
	ext sqlx.ExtContext
}

func (s pgStores) Emails() contactrepo.EmailRepository {
	return contactrepo.NewPostgresEmailRepository(s.ext)
}

func (s pgStores) Phones() contactrepo.PhoneRepository {
	return contactrepo.NewPostgresPhoneRepository(s.ext)
}

func (s pgStores) Profiles() customerrepo.Repository {
	return customerrepo.NewPostgresRepository(s.ext)
}

func (s pgStores) Accounts() accountrepo.Repository {
	return accountrepo.NewPostgresRepository(s.ext)
}

func (s pgStores) StatusAudit() auditrepo.StatusRepository {
	return auditrepo.NewPostgresStatusRepository(s.ext)
}

func (s pgStores) JobAudit() auditrepo.JobRepository {
	return auditrepo.NewPostgresJobRepository(s.ext)
}

func (s pgStores) OtpTokens() otprepo.Repository {
	return otprepo.NewPostgresRepository(s.ext)
}

func (s pgStores) ResetTokens() resettokenrepo.Repository {
	return resettokenrepo.NewPostgresRepository(s.ext)
}

func (s pgStores) Settings() settingsrepo.Repository {
	return settingsrepo.NewPostgresRepository(s.ext)
}

// Postgres is the production store. Its repository accessors run outside any transaction;
// RunInTx hands fn repositories bound to a single transaction.
type Postgres struct {
	pgStores
	db *sqlx.DB
}

// NewPostgres returns a Postgres store over conn.
func NewPostgres(conn *sqlx.DB) *Postgres {
	return &Postgres{pgStores: pgStores{ext: conn}, db: conn}
}

// RunInTx runs fn in one database transaction.
func (p *Postgres) RunInTx(ctx context.Context, fn func(consistency.Stores) error) error {
	return db.RunInTx(ctx, p.db, func(tx *sqlx.Tx) error {
		return fn(pgStores{ext: tx})
	})
}
