// ABOUTME: Database connection management and initialization
// ABOUTME: Handles opening SQLite database with WAL mode at XDG path
package db

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// OpenDatabase opens (creating if needed) a SQLite database at path. The
// special path ":memory:" opens a private in-memory database.
func OpenDatabase(path string) (*sql.DB, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: avoids "database is locked" and keeps :memory: a single database.
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
