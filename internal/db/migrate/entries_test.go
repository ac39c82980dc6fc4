package migrate

import (
	"io/fs"

	"loyalty-accounts/internal/db"
)

func migrationEntries() ([]fs.DirEntry, error) {
	return fs.ReadDir(db.MigrationFS, "migrations")
}
