package repository

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// MigrateSQL applies the embedded migrations for dialect and returns the
// names of the migrations that ran.
func MigrateSQL(ctx context.Context, db *bun.DB, dialect string) ([]string, error) {
	fsys, err := DialectMigrations(dialect)
	if err != nil {
		return nil, internal(err, "failed to load migrations")
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(fsys); err != nil {
		return nil, internal(err, "failed to discover migrations")
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, internal(err, "failed to init migrations")
	}

	if err := migrator.Lock(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "migrations are locked by another process")
	}
	defer migrator.Unlock(ctx) //nolint:errcheck

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, internal(err, "failed to run migrations")
	}

	applied := []string{}
	if group.IsZero() {
		return applied, nil
	}
	for _, m := range group.Migrations {
		applied = append(applied, m.Name)
	}
	return applied, nil
}
