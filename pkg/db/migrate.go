// pkg/db/migrate.go
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var migrationFiles embed.FS

// MigrationStatus reports the schema version before and after a migration run.
type MigrationStatus struct {
	PreVersion  uint
	PostVersion uint
}

// Migrate brings the schema of sqlDB up to date. It is idempotent: running it
// against an up-to-date schema is a no-op.
//
// On postgres the migration runs over a single pooled connection that is
// returned to the pool before Migrate returns. The sqlite driver shares the
// *sql.DB itself, so its migrate instance is left open: closing it would close
// the handle.
func Migrate(ctx context.Context, sqlDB *sqlx.DB) (*MigrationStatus, error) {
	driverName := sqlDB.DriverName()

	dbDriver, release, err := migrationDriver(ctx, sqlDB, driverName)
	if err != nil {
		return nil, err
	}
	defer release()

	src, err := iofs.New(migrationFiles, "migrations/"+driverName)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations for %s: %w", driverName, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	status := &MigrationStatus{}
	status.PreVersion, err = currentVersion(m)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	status.PostVersion, err = currentVersion(m)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	return status, nil
}

// migrationDriver returns the migrate database driver for driverName and a
// func that frees what the driver reserved for one run.
func migrationDriver(ctx context.Context, sqlDB *sqlx.DB, driverName string) (database.Driver, func(), error) {
	switch driverName {
	case DriverSQLite:
		d, err := sqlite.WithInstance(sqlDB.DB, &sqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite.WithInstance: %w", err)
		}
		return d, func() {}, nil
	case DriverPostgres:
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to reserve migration connection: %w", err)
		}
		d, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("postgres.WithConnection: %w", err)
		}
		// A driver built from a connection closes only that connection.
		return d, func() {
			if err := d.Close(); err != nil {
				logrus.WithError(err).Warn("db.Migrate.Close")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("no migrations for driver %q", driverName)
	}
}

func currentVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
