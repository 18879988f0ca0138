package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"penguindash/pkg/domain"
)

const (
	postgresDriver = "pgx"
	// Kept in parity with Open defaults; overridable via env.
	defaultPostgresDSN = "postgres://localhost/penguindash?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// PostgresSource reads the observation table from a PostgreSQL server. The
// penguins table shares its schema with the sqlite source, with id as a
// bigserial primary key.
type PostgresSource struct {
	dsn string
}

// NewPostgresSource constructs a postgres-backed source, falling back to the
// default DSN when empty.
func NewPostgresSource(dsn string) *PostgresSource {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	return &PostgresSource{dsn: dsn}
}

func (s *PostgresSource) Driver() Driver { return DriverPostgres }

func (s *PostgresSource) Load(ctx context.Context) (domain.Table, error) {
	openMu.Lock()
	db, err := sqlOpen(postgresDriver, s.dsn)
	openMu.Unlock()
	if err != nil {
		return domain.Table{}, fmt.Errorf("open postgres: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return domain.Table{}, fmt.Errorf("ping postgres: %w", err)
	}
	return queryPenguins(ctx, db)
}

// OverrideSQLOpen swaps the sql.Open function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
