package http_test

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/models"
	handler "github.com/atinyakov/nomoslink/internal/server/handler/http"
	"github.com/atinyakov/nomoslink/internal/service"
)

// fakeTableService records calls and returns preconfigured results.
type fakeTableService struct {
	table  string
	id     string
	filter models.Filter
	body   []byte

	rows json.RawMessage
	n    int64
	err  error
}

func (f *fakeTableService) List(_ context.Context, table string) (json.RawMessage, error) {
	f.table = table
	return f.rows, f.err
}

func (f *fakeTableService) Upsert(_ context.Context, table string, body []byte) (int, error) {
	f.table, f.body = table, body
	return int(f.n), f.err
}

func (f *fakeTableService) Patch(_ context.Context, table string, filter models.Filter, body []byte) (int64, error) {
	f.table, f.filter, f.body = table, filter, body
	return f.n, f.err
}

func (f *fakeTableService) Delete(_ context.Context, table, id string) error {
	f.table, f.id = table, id
	return f.err
}

func newServer(svc *fakeTableService) http.Handler {
	return handler.NewRouter(&handler.TableHandler{TableService: svc}, zap.NewNop())
}

// do sends a request carrying a client certificate.
func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.TLS = &tls.ConnectionState{PeerCertificates: []*x509.Certificate{
		{Subject: pkix.Name{CommonName: "front-desk"}},
	}}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestTableHandler_List(t *testing.T) {
	svc := &fakeTableService{rows: json.RawMessage(`[{"id":"c1"}]`)}
	w := do(t, newServer(svc), http.MethodGet, "/api/tables/clients", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	if svc.table != "clients" {
		t.Errorf("table = %q; want clients", svc.table)
	}
	if got := w.Body.String(); got != `[{"id":"c1"}]` {
		t.Errorf("body = %q", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestTableHandler_ListUnknownTable(t *testing.T) {
	svc := &fakeTableService{err: service.ErrUnknownTable}
	w := do(t, newServer(svc), http.MethodGet, "/api/tables/secrets", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", w.Code, http.StatusBadRequest)
	}
}

func TestTableHandler_Upsert(t *testing.T) {
	svc := &fakeTableService{n: 2}
	body := []byte(`[{"id":"TX-1"},{"id":"TX-2"}]`)
	w := do(t, newServer(svc), http.MethodPut, "/api/tables/transactions", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	if !bytes.Equal(svc.body, body) {
		t.Errorf("service body = %s", svc.body)
	}
	var resp map[string]int64
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["upserted"] != 2 {
		t.Errorf("upserted = %d; want 2", resp["upserted"])
	}
}

func TestTableHandler_UpsertValidationError(t *testing.T) {
	svc := &fakeTableService{err: service.ErrMissingID}
	w := do(t, newServer(svc), http.MethodPut, "/api/tables/transactions", []byte(`[{}]`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", w.Code, http.StatusBadRequest)
	}
}

func TestTableHandler_RejectsNonJSONBody(t *testing.T) {
	svc := &fakeTableService{}
	req := httptest.NewRequest(http.MethodPut, "/api/tables/tasks", bytes.NewBufferString("id=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	newServer(svc).ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d; want %d", w.Code, http.StatusUnsupportedMediaType)
	}
	if svc.table != "" {
		t.Error("service must not be called")
	}
}

func TestTableHandler_Patch(t *testing.T) {
	svc := &fakeTableService{n: 3}
	w := do(t, newServer(svc), http.MethodPatch,
		"/api/tables/notifications?field=recipientId&value=U-1", []byte(`{"read":true}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	want := models.Filter{Field: "recipientId", Value: "U-1"}
	if svc.filter != want {
		t.Errorf("filter = %+v; want %+v", svc.filter, want)
	}
	var resp map[string]int64
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp["updated"] != 3 {
		t.Errorf("updated = %d; want 3", resp["updated"])
	}
}

func TestTableHandler_Delete(t *testing.T) {
	svc := &fakeTableService{}
	w := do(t, newServer(svc), http.MethodDelete, "/api/tables/users/U-7", nil)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusNoContent)
	}
	if svc.table != "users" || svc.id != "U-7" {
		t.Errorf("Delete(%q, %q)", svc.table, svc.id)
	}
}

func TestTableHandler_InternalError(t *testing.T) {
	svc := &fakeTableService{err: errors.New("db down")}
	w := do(t, newServer(svc), http.MethodDelete, "/api/tables/users/U-7", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want %d", w.Code, http.StatusInternalServerError)
	}
	if body := w.Body.String(); body != "db down\n" {
		t.Errorf("body = %q; want %q", body, "db down\n")
	}
}

func TestRouter_RequiresCertificate(t *testing.T) {
	svc := &fakeTableService{}
	w := httptest.NewRecorder()
	newServer(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tables/users", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRouter_HealthzIsPublic(t *testing.T) {
	w := httptest.NewRecorder()
	newServer(&fakeTableService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d; want %d", w.Code, http.StatusOK)
	}
}
