package store

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// Store is a fact table with upsert-by-natural-key semantics.
type Store interface {
	// EnsureSchema creates the table when it does not exist.
	EnsureSchema(ctx context.Context) error
	// Upsert inserts facts, updating description, type, scenario and
	// timestamp of rows whose natural key already exists. It returns the
	// number of rows written.
	Upsert(ctx context.Context, facts []model.Fact) (int64, error)
	// Facts returns the stored rows ordered by date, entity, GL number and value.
	Facts(ctx context.Context) ([]model.Fact, error)
	Close() error
}

// Backend identifies a store implementation.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
	BackendCSV      Backend = "csv"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseDSN resolves which backend serves dsn and the backend-specific target.
//
//	postgres://... or postgresql://...   Postgres
//	sqlite:<path>, *.db, *.sqlite[3]     SQLite file
//	csv:<path>, *.csv                    ledger CSV file
func ParseDSN(dsn string) (Backend, string, error) {
	dsn = strings.TrimSpace(dsn)
	lower := strings.ToLower(dsn)
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("empty database DSN")
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return BackendPostgres, dsn, nil
	case strings.HasPrefix(lower, "sqlite:"):
		return BackendSQLite, dsn[len("sqlite:"):], nil
	case strings.HasPrefix(lower, "csv:"):
		return BackendCSV, dsn[len("csv:"):], nil
	}

	switch strings.ToLower(filepath.Ext(dsn)) {
	case ".db", ".sqlite", ".sqlite3":
		return BackendSQLite, dsn, nil
	case ".csv":
		return BackendCSV, dsn, nil
	}
	if strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") {
		return BackendPostgres, dsn, nil
	}
	return "", "", fmt.Errorf("unrecognized database DSN %q: use postgres://, sqlite:<path> or csv:<path>", Redact(dsn))
}

// Open connects to the store named by dsn. table is ignored by the CSV backend.
func Open(ctx context.Context, dsn, table string) (Store, error) {
	backend, target, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if backend != BackendCSV && !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	switch backend {
	case BackendPostgres:
		return OpenPostgres(ctx, target, table)
	case BackendSQLite:
		return OpenSQLite(ctx, target, table)
	default:
		return OpenCSV(target), nil
	}
}

// Redact hides the password of a URL-style DSN for logging.
func Redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return dsn
	}
	user, _, hasPass := strings.Cut(rest[:at], ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":xxxxx" + rest[at:]
}
