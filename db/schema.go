// ABOUTME: Database schema definitions and migrations
// ABOUTME: Creates the single documents table shared by the SQLite and Postgres stores
package db

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection_created ON documents(collection, created_at);
`

// InitSchema creates the tables if they don't already exist.
func InitSchema(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(), schema)
	return err
}
