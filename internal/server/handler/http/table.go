// Package http provides HTTP handlers for the table store.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/nomoslink/internal/models"
	"github.com/atinyakov/nomoslink/internal/service"
)

// maxBody caps request bodies; a full collection push fits well inside it.
const maxBody = 16 << 20

// TableService defines the table store operations required by the
// TableHandler.
type TableService interface {
	// List returns every live row of table as a JSON array.
	List(ctx context.Context, table string) (json.RawMessage, error)
	// Upsert writes a JSON array of rows keyed by id and returns how many
	// were written.
	Upsert(ctx context.Context, table string, body []byte) (int, error)
	// Patch merges a JSON object into every row matching filter.
	Patch(ctx context.Context, table string, filter models.Filter, body []byte) (int64, error)
	// Delete removes one row.
	Delete(ctx context.Context, table, id string) error
}

// TableHandler handles HTTP requests for table reads and writes.
type TableHandler struct {
	TableService TableService
}

// List handles GET /api/tables/{table}.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.TableService.List(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(rows)
}

// Upsert handles PUT /api/tables/{table}. The body is a JSON array of rows.
func (h *TableHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	n, err := h.TableService.Upsert(r.Context(), chi.URLParam(r, "table"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int64{"upserted": int64(n)})
}

// Patch handles PATCH /api/tables/{table}?field=&value=. The body is a
// JSON object merged into every matching row.
func (h *TableHandler) Patch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	filter := models.Filter{Field: q.Get("field"), Value: q.Get("value")}
	n, err := h.TableService.Patch(r.Context(), chi.URLParam(r, "table"), filter, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int64{"updated": n})
}

// Delete handles DELETE /api/tables/{table}/{id}.
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.TableService.Delete(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownTable),
		errors.Is(err, service.ErrInvalidRows),
		errors.Is(err, service.ErrMissingID),
		errors.Is(err, service.ErrInvalidFilter),
		errors.Is(err, service.ErrInvalidPatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
