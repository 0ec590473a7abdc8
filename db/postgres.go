// ABOUTME: Postgres connection bootstrap for the shared document store
// ABOUTME: Opens a lib/pq pool, verifies it, and installs the documents schema
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// OpenPostgres connects to dsn and prepares the documents table.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	return db, nil
}
