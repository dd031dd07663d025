package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRequestLogging_LogsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := WithRequestLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/tables/tasks/TASK-1", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.InfoLevel {
		t.Errorf("level = %v; want info", e.Level)
	}
	fields := e.ContextMap()
	if fields["status"] != int64(http.StatusNoContent) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["path"] != "/api/tables/tasks/TASK-1" {
		t.Errorf("path field = %v", fields["path"])
	}
}

func TestWithRequestLogging_ImplicitOK(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := WithRequestLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tables/tasks", nil))

	fields := logs.All()[0].ContextMap()
	if fields["status"] != int64(http.StatusOK) {
		t.Errorf("status field = %v; want 200", fields["status"])
	}
	if fields["bytes"] != int64(2) {
		t.Errorf("bytes field = %v; want 2", fields["bytes"])
	}
}

func TestWithRequestLogging_ServerErrorAtErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := WithRequestLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tables/users", nil))

	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 1 {
		t.Errorf("expected 1 error entry, got %d", n)
	}
}

func TestWithRequestLogging_LogsDevice(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := WithRequestLogging(zap.New(core))(RequireDevice(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := withDevice(httptest.NewRequest(http.MethodGet, "/api/tables/letters", nil), "records-room")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["device"]; got != "records-room" {
		t.Errorf("device field = %v", got)
	}

	logs.TakeAll()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if _, ok := logs.All()[0].ContextMap()["device"]; ok {
		t.Error("anonymous request should not carry a device field")
	}
}
