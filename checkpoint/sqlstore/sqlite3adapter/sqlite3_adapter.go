/*
Package sqlite3adapter is the sqlstore.Adapter for SQLite3, grounded on the
teacher's pkg/bio/sql/sqlite3adapter (same driver import, same
db.Exec-a-prepared-statement shape).
*/
package sqlite3adapter

import (
	"context"
	"database/sql"

	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/pbanos/pxforest/checkpoint/sqlstore"
)

type adapter struct{}

// New returns the sqlstore.Adapter for the sqlite3 driver. Callers open
// the database themselves via sqlstore.Open("sqlite3", path, New()).
func New() sqlstore.Adapter {
	return &adapter{}
}

func (a *adapter) Upsert(ctx context.Context, db *sql.DB, runKey string, kind int, payload []byte) error {
	stmt, err := db.PrepareContext(ctx, `INSERT INTO checkpoints (run_key, kind, payload) VALUES (?, ?, ?)
		ON CONFLICT(run_key, kind) DO UPDATE SET payload = excluded.payload`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	_, err = stmt.ExecContext(ctx, runKey, kind, payload)
	return err
}
