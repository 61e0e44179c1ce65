// Package badger implements engine.Backend over BadgerDB: the ordered
// keyspace plays the role of a wide-column store's partition/clustering
// keys, so every listing is a single forward range scan and refcounts
// are explicit counters mutated in the same transaction as the
// assignment writes they track.
package badger

import (
	"context"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/deuce/pkg/engine"
)

// Config is the distributed backend's connection configuration.
type Config struct {
	// Dir is the directory BadgerDB persists its value log and LSM tree
	// to. An empty Dir is rejected; use t.TempDir() in tests.
	Dir string

	// InMemory runs Badger entirely in memory, ignoring Dir. Useful for
	// tests and the conformance suite.
	InMemory bool
}

// Store is an engine.Backend backed by an embedded BadgerDB instance.
type Store struct {
	db  *badgerdb.DB
	cfg engine.Config
}

var _ engine.Backend = (*Store)(nil)

// Open opens (creating if necessary) the BadgerDB instance at cfg.Dir.
func Open(_ context.Context, badgerCfg Config, cfg engine.Config) (*Store, error) {
	var opts badgerdb.Options
	if badgerCfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if badgerCfg.Dir == "" {
			return nil, fmt.Errorf("badger: dir is required")
		}
		opts = badgerdb.DefaultOptions(badgerCfg.Dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}

	return &Store{db: db, cfg: cfg}, nil
}

// Health reports whether a read transaction can still be started.
func (s *Store) Health(ctx context.Context) engine.HealthStatus {
	if err := ctx.Err(); err != nil {
		return engine.HealthStatus{OK: false, Reason: err.Error()}
	}
	err := s.db.View(func(txn *badgerdb.Txn) error { return nil })
	if err != nil {
		return engine.HealthStatus{OK: false, Reason: err.Error()}
	}
	return engine.HealthStatus{OK: true}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func badgerErr(project, vault string, err error) error {
	return engine.NewBackendError(project, vault, err)
}
