// Package catalog provides the SQLite-backed document store and link ledger.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	slug          TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL DEFAULT '',
	excerpt       TEXT NOT NULL DEFAULT '',
	category_slug TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'draft',
	reading_time  INTEGER NOT NULL DEFAULT 0,
	content       TEXT NOT NULL DEFAULT '[]',
	checksum      TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_documents_status   ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category_slug);

CREATE TABLE IF NOT EXISTS link_records (
	document_id        TEXT NOT NULL,
	url                TEXT NOT NULL,
	anchor_text        TEXT NOT NULL DEFAULT '',
	link_type          TEXT NOT NULL,
	domain             TEXT NOT NULL DEFAULT '',
	linked_document_id TEXT NOT NULL DEFAULT '',
	opens_new_tab      INTEGER NOT NULL DEFAULT 0,
	is_nofollow        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_link_records_document ON link_records(document_id);
CREATE INDEX IF NOT EXISTS idx_link_records_type     ON link_records(document_id, link_type);
`

// DB wraps a sql.DB with catalog-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
