// Package store persists reference data and imported records in a SQL
// database. SQLite (modernc) is the default; Postgres is reached through
// pgx's database/sql driver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Store is the persistence collaborator of imports and exports.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn with driver and creates missing tables.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	recordID := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		recordID = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			currency_code TEXT NOT NULL,
			balance TEXT NOT NULL DEFAULT '0'
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			id ` + recordID + `,
			kind TEXT NOT NULL,
			external_id TEXT NOT NULL DEFAULT '',
			external_key TEXT NOT NULL DEFAULT '',
			account_id INTEGER NOT NULL REFERENCES accounts(id),
			to_account_id INTEGER REFERENCES accounts(id),
			amount TEXT NOT NULL,
			currency_code TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			user_id INTEGER REFERENCES users(id),
			occurred_on TEXT NOT NULL DEFAULT '',
			origin TEXT NOT NULL,
			batch_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS records_external_key
			ON records (kind, external_key) WHERE external_key <> ''`,
		`CREATE INDEX IF NOT EXISTS records_batch ON records (batch_id)`,
		`CREATE TABLE IF NOT EXISTS record_tags (
			record_id BIGINT NOT NULL REFERENCES records(id),
			position INTEGER NOT NULL,
			tag_id INTEGER NOT NULL REFERENCES tags(id),
			PRIMARY KEY (record_id, position)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders to "$n" for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
