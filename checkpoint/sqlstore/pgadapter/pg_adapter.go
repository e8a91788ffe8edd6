/*
Package pgadapter is the sqlstore.Adapter for PostgreSQL, using lib/pq and
Postgres's own upsert syntax in place of sqlite3adapter's.
*/
package pgadapter

import (
	"context"
	"database/sql"

	// Import of postgres driver
	_ "github.com/lib/pq"

	"github.com/pbanos/pxforest/checkpoint/sqlstore"
)

type adapter struct{}

// New returns the sqlstore.Adapter for the postgres driver. Callers open
// the database themselves via sqlstore.Open("postgres", dsn, New()).
func New() sqlstore.Adapter {
	return &adapter{}
}

func (a *adapter) Upsert(ctx context.Context, db *sql.DB, runKey string, kind int, payload []byte) error {
	stmt, err := db.PrepareContext(ctx, `INSERT INTO checkpoints (run_key, kind, payload) VALUES ($1, $2, $3)
		ON CONFLICT (run_key, kind) DO UPDATE SET payload = excluded.payload`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	_, err = stmt.ExecContext(ctx, runKey, kind, payload)
	return err
}
