package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// Postgres stores facts in a PostgreSQL table through a pgx pool.
type Postgres struct {
	pool  *pgxpool.Pool
	table string // sanitized identifier
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &Postgres{pool: pool, table: pgx.Identifier{table}.Sanitize()}, nil
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	gl_number   INTEGER NOT NULL,
	description TEXT,
	entity      TEXT NOT NULL,
	type        TEXT,
	date        DATE NOT NULL,
	value       TEXT NOT NULL,
	scenario    TEXT,
	timestamp   TIMESTAMPTZ,
	UNIQUE (gl_number, date, entity, value)
)`, p.table)
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", p.table, err)
	}
	return nil
}

// Upsert writes all facts in one transaction; any failure rolls back the batch.
func (p *Postgres) Upsert(ctx context.Context, facts []model.Fact) (int64, error) {
	if len(facts) == 0 {
		return 0, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := upsertSQL(p.table, func(i int) string { return "$" + strconv.Itoa(i) })
	batch := &pgx.Batch{}
	for _, f := range facts {
		batch.Queue(query, f.GLNumber, f.Description, f.Entity, f.Type, f.Date, f.ValueString(), f.Scenario, f.Timestamp)
	}

	br := tx.SendBatch(ctx, batch)
	var affected int64
	for i := range facts {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return 0, fmt.Errorf("upserting fact %d (GL %d): %w", i, facts[i].GLNumber, err)
		}
		affected += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("upserting facts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing facts: %w", err)
	}
	return affected, nil
}

func (p *Postgres) Facts(ctx context.Context) ([]model.Fact, error) {
	rows, err := p.pool.Query(ctx, selectSQL(p.table))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", p.table, err)
	}
	defer rows.Close()

	var facts []model.Fact
	for rows.Next() {
		var s scannedFact
		var gl int32
		if err := rows.Scan(&gl, &s.Description, &s.Entity, &s.Type, &s.Date, &s.Value, &s.Scenario, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p.table, err)
		}
		s.GLNumber = int64(gl)
		f, err := s.fact()
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
