package pagestate

import (
	"database/sql"
	"errors"

	"github.com/dolphinheart/mulastudio/internal/database"
)

// SQLiteTier persists page-state buckets in the client's sqlite database,
// one row per view.
type SQLiteTier struct {
	db *sql.DB
}

// NewSQLiteTier wraps an open database (schema applied by database.Migrate).
func NewSQLiteTier(db *sql.DB) *SQLiteTier {
	return &SQLiteTier{db: db}
}

func (t *SQLiteTier) Load(bucket string) ([]byte, error) {
	var data []byte
	err := t.db.QueryRow(`SELECT data FROM page_state WHERE bucket = ?`, bucket).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (t *SQLiteTier) Save(bucket string, data []byte) error {
	_, err := t.db.Exec(`
		INSERT INTO page_state (bucket, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(bucket) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		bucket, data, database.Now())
	return err
}

func (t *SQLiteTier) Delete(bucket string) error {
	_, err := t.db.Exec(`DELETE FROM page_state WHERE bucket = ?`, bucket)
	return err
}
