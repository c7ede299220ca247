// Package database opens the client-side sqlite store and applies its schema
// migrations. The database holds locally persisted UI state (page-state
// buckets); everything task- or project-shaped lives on the backend.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the state database, creating it on first use.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Now returns UTC time truncated to seconds, matching what sqlite stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
