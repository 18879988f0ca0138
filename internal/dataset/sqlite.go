package dataset

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"penguindash/pkg/domain"
)

// SQLiteSource reads the observation table from a local SQLite file.
type SQLiteSource struct {
	path string
}

// NewSQLiteSource constructs a sqlite-backed source. An empty path falls back
// to ./penguindash.db.
func NewSQLiteSource(path string) *SQLiteSource {
	if path == "" {
		path = "penguindash.db"
	}
	return &SQLiteSource{path: path}
}

func (s *SQLiteSource) Driver() Driver { return DriverSQLite }

// Path returns the configured database path.
func (s *SQLiteSource) Path() string { return s.path }

func (s *SQLiteSource) Load(ctx context.Context) (domain.Table, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()
	return queryPenguins(ctx, db)
}

// SeedSQLite creates the penguins table at path and fills it from table,
// replacing any previous contents. Used by ops tooling and tests to stage a
// sqlite dataset from the bundled CSV.
func SeedSQLite(ctx context.Context, path string, table domain.Table) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS penguins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		species TEXT NOT NULL,
		island TEXT NOT NULL,
		bill_length_mm REAL NOT NULL,
		bill_depth_mm REAL NOT NULL,
		flipper_length_mm REAL NOT NULL,
		body_mass_g REAL NOT NULL,
		sex TEXT,
		year INTEGER
	)`); err != nil {
		return fmt.Errorf("create penguins table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM penguins`); err != nil {
		return fmt.Errorf("clear penguins: %w", err)
	}
	var execErr error
	table.Each(func(p domain.Penguin) {
		if execErr != nil {
			return
		}
		_, execErr = tx.ExecContext(ctx, `INSERT INTO penguins
			(species, island, bill_length_mm, bill_depth_mm, flipper_length_mm, body_mass_g, sex, year)
			VALUES (?,?,?,?,?,?,?,?)`,
			string(p.Species), p.Island, p.BillLengthMM, p.BillDepthMM, p.FlipperLengthMM, p.BodyMassG, p.Sex, p.Year)
	})
	if execErr != nil {
		return fmt.Errorf("insert penguin: %w", execErr)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func queryPenguins(ctx context.Context, db *sql.DB) (domain.Table, error) {
	rows, err := db.QueryContext(ctx, `SELECT species, island, bill_length_mm, bill_depth_mm,
		flipper_length_mm, body_mass_g, COALESCE(sex,''), COALESCE(year,0)
		FROM penguins ORDER BY id`)
	if err != nil {
		return domain.Table{}, fmt.Errorf("select penguins: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Penguin
	for rows.Next() {
		var p domain.Penguin
		var species string
		if err := rows.Scan(&species, &p.Island, &p.BillLengthMM, &p.BillDepthMM,
			&p.FlipperLengthMM, &p.BodyMassG, &p.Sex, &p.Year); err != nil {
			return domain.Table{}, fmt.Errorf("scan penguin: %w", err)
		}
		parsed, err := domain.ParseSpecies(species)
		if err != nil {
			return domain.Table{}, err
		}
		p.Species = parsed
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return domain.Table{}, fmt.Errorf("iterate penguins: %w", err)
	}
	if len(out) == 0 {
		return domain.Table{}, fmt.Errorf("penguins table is empty")
	}
	return domain.NewTable(out), nil
}
