// Package journal keeps a SQLite-backed history of template reload cycles.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/quire/internal/reload"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS reloads (
	seq         INTEGER NOT NULL,
	started_at  DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	templates   INTEGER NOT NULL DEFAULT 0,
	asset_error TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_reloads_started_at ON reloads(started_at);
`

// DefaultLimit is the number of cycles returned by Recent when limit <= 0.
const DefaultLimit = 20

// DB wraps a sql.DB holding the reload history.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record appends one cycle.
func (db *DB) Record(c reload.Cycle) error {
	_, err := db.conn.Exec(`
		INSERT INTO reloads (seq, started_at, duration_ms, templates, asset_error, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.Seq, c.StartedAt.UTC(), c.Duration.Milliseconds(), c.Templates, c.AssetError, c.Error)
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// Recent returns up to limit cycles, newest first.
func (db *DB) Recent(limit int) ([]reload.Cycle, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := db.conn.Query(`
		SELECT seq, started_at, duration_ms, templates, asset_error, error
		FROM reloads
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []reload.Cycle
	for rows.Next() {
		var (
			c  reload.Cycle
			ms int64
		)
		if err := rows.Scan(&c.Seq, &c.StartedAt, &ms, &c.Templates, &c.AssetError, &c.Error); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		c.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, c)
	}
	return out, rows.Err()
}

// Observer returns a reload.Observer that records every cycle, reporting
// write failures to onErr.
func (db *DB) Observer(onErr func(error)) reload.Observer {
	return func(c reload.Cycle) {
		if err := db.Record(c); err != nil && onErr != nil {
			onErr(err)
		}
	}
}
