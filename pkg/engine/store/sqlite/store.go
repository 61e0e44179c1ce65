// Package sqlite implements engine.Backend as the local transactional
// backend: a single embedded SQLite connection accessed through
// database/sql, serialized by an in-process mutex, owning its schema
// via a versioned DDL list tracked in PRAGMA user_version.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/glebarez/go-sqlite"

	"github.com/marmos91/deuce/pkg/engine"
)

// Config is the local transactional backend's connection configuration.
// Path corresponds to the metadata_driver.options.path setting.
type Config struct {
	// Path is the filesystem path of the embedded database file. ":memory:"
	// opens a private in-memory database, useful for tests.
	Path string
}

// Store is a single-connection, mutex-guarded engine.Backend over an
// embedded SQLite database. The pool is capped at one connection and
// every operation additionally holds mu for its duration, trading
// multi-reader concurrency for serialized correctness.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	cfg engine.Config
}

var _ engine.Backend = (*Store)(nil)

// Open connects to the configured SQLite file (creating its parent
// directory if necessary), applies any pending migrations, and returns a
// ready-to-use Store.
func Open(ctx context.Context, sqliteCfg Config, cfg engine.Config) (*Store, error) {
	if sqliteCfg.Path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	if sqliteCfg.Path != ":memory:" {
		if dir := filepath.Dir(sqliteCfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create database directory: %w", err)
			}
		}
	}

	dsn := sqliteCfg.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", sqliteCfg.Path, err)
	}

	// Single connection: access is serialized at the process level, and
	// a second connection to the same file would only contend for the
	// same lock without adding concurrency.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %q: %w", sqliteCfg.Path, err)
	}

	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cfg: cfg}, nil
}

// Health reports whether the underlying connection can still be pinged.
func (s *Store) Health(ctx context.Context) engine.HealthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.PingContext(ctx); err != nil {
		return engine.HealthStatus{OK: false, Reason: err.Error()}
	}
	return engine.HealthStatus{OK: true}
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func sqliteErr(project, vault string, err error) error {
	return engine.NewBackendError(project, vault, err)
}
