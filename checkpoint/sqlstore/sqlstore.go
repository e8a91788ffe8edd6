/*
Package sqlstore is a database/sql-backed checkpoint.Store: one checkpoints
table keyed by (run key, kind), holding the latest payload for each. The
Adapter indirection mirrors the teacher's pkg/bio/sql.Adapter pattern, here
narrowed to the one statement a checkpoint store needs instead of the
teacher's full tabular-sample-set surface.
*/
package sqlstore

import (
	"context"
	"database/sql"

	"github.com/pbanos/pxforest/checkpoint"
	"github.com/pbanos/pxforest/perr"
)

const createTableStmt = `CREATE TABLE IF NOT EXISTS checkpoints (
	run_key TEXT NOT NULL,
	kind INTEGER NOT NULL,
	payload BLOB NOT NULL,
	PRIMARY KEY (run_key, kind)
)`

// Adapter hides the driver-specific upsert statement behind one method, so
// Store stays driver-agnostic.
type Adapter interface {
	Upsert(ctx context.Context, db *sql.DB, runKey string, kind int, payload []byte) error
}

// Store is a checkpoint.Store backed by *sql.DB.
type Store struct {
	db      *sql.DB
	adapter Adapter
}

// Open opens driverName/dataSourceName via database/sql, ensures the
// checkpoints table exists, and returns a Store using adapter for the
// driver-specific upsert.
func Open(driverName, dataSourceName string, adapter Adapter) (*Store, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, perr.Wrapf(err, perr.IO, "opening %s database", driverName)
	}
	if _, err := db.Exec(createTableStmt); err != nil {
		return nil, perr.Wrapf(err, perr.IO, "creating checkpoints table")
	}
	return &Store{db: db, adapter: adapter}, nil
}

func (s *Store) Put(ctx context.Context, key string, kind checkpoint.Kind, payload []byte) error {
	if err := s.adapter.Upsert(ctx, s.db, key, int(kind), payload); err != nil {
		return perr.Wrapf(err, perr.IO, "writing checkpoint %s", key)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
