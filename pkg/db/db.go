// pkg/db/db.go
package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // Embedded SQLite driver, registered as "sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database connection configuration.
type Config struct {
	Driver string // sqlite or postgres
	Path   string // SQLite file path
	DSN    string // PostgreSQL connection string
}

// Open initializes and returns a database handle for the configured driver.
// The connection is verified with a ping before returning.
func Open(cfg Config) (*sqlx.DB, error) {
	var (
		database *sqlx.DB
		err      error
	)

	switch cfg.Driver {
	case DriverSQLite, "":
		database, err = sqlx.Open(DriverSQLite, sqliteDSN(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database %q: %w", cfg.Path, err)
		}
		// One file, one writer.
		database.SetMaxOpenConns(1)
	case DriverPostgres:
		database, err = sqlx.Open(DriverPostgres, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
		}
		database.SetMaxOpenConns(5)
		database.SetMaxIdleConns(2)
		database.SetConnMaxLifetime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return database, nil
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "atm.db"
	}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	return "file:" + path + "?" + q.Encode()
}
