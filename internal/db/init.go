// Package db opens the table store database and runs its housekeeping.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Every client table lives in one records table keyed by (tbl, id). seq
// keeps first-insert order; updated_at is unix seconds of the last write.
const schema = `
CREATE TABLE IF NOT EXISTS records (
    tbl        TEXT    NOT NULL,
    id         TEXT    NOT NULL,
    data       JSONB   NOT NULL,
    seq        BIGSERIAL,
    updated_at BIGINT  NOT NULL,
    deleted    BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (tbl, id)
);

CREATE INDEX IF NOT EXISTS records_live_idx ON records (tbl, seq) WHERE deleted = false;
`

func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema if it is missing.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
