// Package service validates table store requests and delegates persistence
// to a repository.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/atinyakov/nomoslink/internal/models"
	"github.com/atinyakov/nomoslink/internal/repository"
)

var (
	// ErrUnknownTable is returned for a table the practice client does not use.
	ErrUnknownTable = errors.New("unknown table")
	// ErrInvalidRows is returned when an upsert body is not an array of objects.
	ErrInvalidRows = errors.New("rows must be a JSON array of objects")
	// ErrMissingID is returned when an upserted row has no string id.
	ErrMissingID = errors.New("row has no id")
	// ErrInvalidFilter is returned for a malformed update filter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidPatch is returned when a patch is not an object or rewrites id.
	ErrInvalidPatch = errors.New("invalid patch")
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// TableRepository defines the persistence operations needed by the TableService.
type TableRepository interface {
	// SelectAll returns the live documents of table in first-insert order.
	SelectAll(ctx context.Context, table string) ([]json.RawMessage, error)
	// UpsertRows inserts or replaces documents keyed by id.
	UpsertRows(ctx context.Context, table string, rows []repository.Row) error
	// UpdateWhere merges patch into every document whose field equals value.
	UpdateWhere(ctx context.Context, table, field, value string, patch json.RawMessage) (int64, error)
	// SoftDelete marks documents as deleted.
	SoftDelete(ctx context.Context, table string, ids []string) (int64, error)
}

// TableService implements the table store business rules.
type TableService struct {
	// repo is the underlying persistence repository.
	repo TableRepository
}

// NewTableService constructs a TableService with the provided TableRepository.
func NewTableService(repo TableRepository) *TableService {
	return &TableService{repo: repo}
}

// List returns every live document of table as one JSON array.
func (s *TableService) List(ctx context.Context, table string) (json.RawMessage, error) {
	if !models.KnownTable(table) {
		return nil, ErrUnknownTable
	}
	docs, err := s.repo.SelectAll(ctx, table)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(d)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Upsert writes a JSON array of documents. Every document must carry a
// non-empty string id. It returns how many rows were written.
func (s *TableService) Upsert(ctx context.Context, table string, body []byte) (int, error) {
	if !models.KnownTable(table) {
		return 0, ErrUnknownTable
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, ErrInvalidRows
	}
	if len(raw) == 0 {
		return 0, nil
	}

	rows := make([]repository.Row, 0, len(raw))
	for i, r := range raw {
		var head struct {
			ID any `json:"id"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return 0, ErrInvalidRows
		}
		id, ok := head.ID.(string)
		if !ok || id == "" {
			return 0, fmt.Errorf("row %d: %w", i, ErrMissingID)
		}
		rows = append(rows, repository.Row{ID: id, Data: r})
	}

	if err := s.repo.UpsertRows(ctx, table, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Patch merges a JSON object into every document whose field equals value.
// The patch may not rewrite id.
func (s *TableService) Patch(ctx context.Context, table string, filter models.Filter, body []byte) (int64, error) {
	if !models.KnownTable(table) {
		return 0, ErrUnknownTable
	}
	if !fieldName.MatchString(filter.Field) {
		return 0, ErrInvalidFilter
	}

	var patch map[string]json.RawMessage
	if err := json.Unmarshal(body, &patch); err != nil || patch == nil {
		return 0, ErrInvalidPatch
	}
	if _, ok := patch["id"]; ok {
		return 0, fmt.Errorf("%w: id is immutable", ErrInvalidPatch)
	}
	if len(patch) == 0 {
		return 0, nil
	}

	return s.repo.UpdateWhere(ctx, table, filter.Field, filter.Value, body)
}

// Delete removes the document with the given id. Deleting a missing id is
// not an error.
func (s *TableService) Delete(ctx context.Context, table, id string) error {
	if !models.KnownTable(table) {
		return ErrUnknownTable
	}
	if id == "" {
		return ErrMissingID
	}
	_, err := s.repo.SoftDelete(ctx, table, []string{id})
	return err
}
