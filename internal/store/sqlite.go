package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// SQLite stores facts in a local SQLite file. Dates and timestamps are
// TEXT columns (YYYY-MM-DD and RFC 3339).
type SQLite struct {
	db    *sql.DB
	table string // quoted identifier
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path, table string) (*SQLite, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database dir: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLite{db: db, table: fmt.Sprintf("%q", table)}, nil
}

func (s *SQLite) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	gl_number   INTEGER NOT NULL,
	description TEXT,
	entity      TEXT NOT NULL,
	type        TEXT,
	date        TEXT NOT NULL,
	value       TEXT NOT NULL,
	scenario    TEXT,
	timestamp   TEXT,
	UNIQUE (gl_number, date, entity, value)
)`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	return nil
}

// Upsert writes all facts in one transaction.
func (s *SQLite) Upsert(ctx context.Context, facts []model.Fact) (int64, error) {
	if len(facts) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertSQL(s.table, func(int) string { return "?" }))
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	var affected int64
	for i, f := range facts {
		res, err := stmt.ExecContext(ctx,
			f.GLNumber,
			f.Description,
			f.Entity,
			f.Type,
			f.DateString(),
			f.ValueString(),
			f.Scenario,
			f.Timestamp.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return 0, fmt.Errorf("upserting fact %d (GL %d): %w", i, f.GLNumber, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("upserting fact %d: %w", i, err)
		}
		affected += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing facts: %w", err)
	}
	return affected, nil
}

func (s *SQLite) Facts(ctx context.Context) ([]model.Fact, error) {
	rows, err := s.db.QueryContext(ctx, selectSQL(s.table))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.table, err)
	}
	defer rows.Close()

	var facts []model.Fact
	for rows.Next() {
		var (
			sf                        scannedFact
			desc, typ, scenario, stmp sql.NullString
			date                      string
		)
		if err := rows.Scan(&sf.GLNumber, &desc, &sf.Entity, &typ, &date, &sf.Value, &scenario, &stmp); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.table, err)
		}
		if sf.Date, err = time.Parse(model.DateFormat, date); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		sf.Description = nullable(desc)
		sf.Type = nullable(typ)
		sf.Scenario = nullable(scenario)
		if stmp.Valid && stmp.String != "" {
			ts, err := time.Parse(time.RFC3339, stmp.String)
			if err != nil {
				return nil, fmt.Errorf("stored timestamp %q: %w", stmp.String, err)
			}
			sf.Timestamp = &ts
		}

		f, err := sf.fact()
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
