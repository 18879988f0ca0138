// Package dataset produces the immutable base table of penguin observations.
// A source is consulted exactly once at process start; the resulting table is
// shared read-only across sessions.
package dataset

import (
	"context"
	"fmt"
	"os"

	"penguindash/pkg/domain"
)

// Driver identifies a concrete dataset source implementation.
type Driver string

const (
	DriverEmbed    Driver = "embed"    // bundled CSV (default)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Source loads the base table. Load is one-shot; a failure is fatal to the
// caller since the dashboard cannot run without its dataset.
type Source interface {
	Load(ctx context.Context) (domain.Table, error)
	Driver() Driver
}

// Open selects a dataset source using environment variables.
//
//	PENGUINDASH_DATASET_SOURCE: embed|sqlite|postgres (default embed)
//	PENGUINDASH_SQLITE_PATH: path to sqlite file (default ./penguindash.db)
//	PENGUINDASH_POSTGRES_DSN: postgres DSN when source=postgres
func Open() (Source, error) {
	driver := os.Getenv("PENGUINDASH_DATASET_SOURCE")
	if driver == "" {
		driver = string(DriverEmbed)
	}
	switch Driver(driver) {
	case DriverEmbed:
		return EmbeddedSource{}, nil
	case DriverSQLite:
		return NewSQLiteSource(os.Getenv("PENGUINDASH_SQLITE_PATH")), nil
	case DriverPostgres:
		return NewPostgresSource(os.Getenv("PENGUINDASH_POSTGRES_DSN")), nil
	default:
		return nil, fmt.Errorf("unknown dataset source %s", driver)
	}
}
