// Package repository provides the PostgreSQL persistence of the table
// store: every client table is a set of JSON documents keyed by id.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Row is one document of a table.
type Row struct {
	ID   string
	Data json.RawMessage
}

// PostgresTableRepository implements table store operations against a PostgreSQL database.
type PostgresTableRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
	// Now stamps updated_at; tests pin it.
	Now func() time.Time
}

// NewPostgresTableRepository creates a new PostgresTableRepository using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance with the records schema.
func NewPostgresTableRepository(db *sql.DB) *PostgresTableRepository {
	return &PostgresTableRepository{DB: db, Now: time.Now}
}

// SelectAll returns the live documents of table in first-insert order.
//
//	ctx:   context for cancellation and deadlines
//	table: client table name
//
// Returns the documents or an error if the query or scanning fails.
func (r *PostgresTableRepository) SelectAll(ctx context.Context, table string) ([]json.RawMessage, error) {
	query, args, err := psql.Select("data").
		From("records").
		Where(sq.Eq{"tbl": table}).
		Where(sq.Eq{"deleted": false}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		docs = append(docs, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return docs, nil
}

// UpsertRows inserts new documents or replaces existing ones, keyed by
// (table, id), within a transaction. A replaced row keeps its position and
// is revived if it was soft-deleted.
//
//	ctx:   context for cancellation and deadlines
//	table: client table name
//	rows:  documents to write
//
// Returns an error if any statement or the commit fails.
func (r *PostgresTableRepository) UpsertRows(ctx context.Context, table string, rows []Row) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := r.Now().Unix()
	for _, row := range rows {
		query, args, err := psql.Insert("records").
			Columns("tbl", "id", "data", "updated_at", "deleted").
			Values(table, row.ID, string(row.Data), now, false).
			Suffix(`ON CONFLICT (tbl, id) DO UPDATE SET
				data = EXCLUDED.data,
				updated_at = EXCLUDED.updated_at,
				deleted = false`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", table, row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateWhere merges patch into every live document of table whose
// top-level field equals value.
//
//	ctx:   context for cancellation and deadlines
//	table: client table name
//	field: top-level JSON key to match
//	value: value compared as text
//	patch: JSON object merged over the matching documents
//
// Returns the number of documents changed.
func (r *PostgresTableRepository) UpdateWhere(ctx context.Context, table, field, value string, patch json.RawMessage) (int64, error) {
	query, args, err := psql.Update("records").
		Set("data", sq.Expr("data || ?::jsonb", string(patch))).
		Set("updated_at", r.Now().Unix()).
		Where(sq.Eq{"tbl": table}).
		Where(sq.Eq{"deleted": false}).
		Where("data->>? = ?", field, value).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// SoftDelete marks the documents with the given ids as deleted. The
// cleaner purges them after the retention period.
//
//	ctx:   context for cancellation and deadlines
//	table: client table name
//	ids:   document ids to delete
//
// Returns the number of documents marked.
func (r *PostgresTableRepository) SoftDelete(ctx context.Context, table string, ids []string) (int64, error) {
	query, args, err := psql.Update("records").
		Set("deleted", true).
		Set("updated_at", r.Now().Unix()).
		Where(sq.Eq{"tbl": table}).
		Where("id = ANY(?)", pq.Array(ids)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
