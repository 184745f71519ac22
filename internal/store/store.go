package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Catalog versions, stored in PRAGMA user_version:
//
//	0 - refset_tables only
//	1 - refset_tables indexed by record_type
const catalogVersion = 1

// pragmas configure a writable database: WAL journal, NORMAL sync, a busy
// timeout and foreign keys.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is a SQLite database holding one table per record type, described
// by the refset_tables catalog.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures Open and OpenReadOnly.
type Option func(*Store)

// WithLogger sets the logger for migrations and table writes.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens path for writing, creating the file when missing, and brings
// the catalog up to date. Opening the same file again is a no-op for the
// schema. ":memory:" gives a private in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	s, err := connect(path, opts)
	if err != nil {
		return nil, err
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %q: %w", pragma, err)
		}
	}
	if err := s.migrate(); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return s, nil
}

// OpenReadOnly opens an existing database without creating, configuring
// or migrating it, so files written by other tools can be read as they are.
func OpenReadOnly(path string, opts ...Option) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return connect("file:"+path+"?mode=ro", opts)
}

// connect opens dsn on a single connection; SQLite serializes writers.
func connect(dsn string, opts []Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates the catalog and applies the steps between the file's
// user_version and catalogVersion.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	steps := []func() error{s.indexRecordTypes}
	for v := version; v < catalogVersion; v++ {
		if err := steps[v](); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		s.logger.Debug("catalog migrated", "version", v+1)
	}

	if version < catalogVersion {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", catalogVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// indexRecordTypes is catalog version 1.
func (s *Store) indexRecordTypes() error {
	_, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_refset_tables_record_type
		ON refset_tables(record_type)
	`)
	return err
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var got string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if got != expected {
		return fmt.Errorf("%s = %q, expected %q", name, got, expected)
	}
	return nil
}
