package middleware

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"net/http"
	"net/http/httptest"
	"testing"
)

// recordingHandler records whether it was called and the context it received.
type recordingHandler struct {
	called bool
	ctx    context.Context
}

func (d *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func withDevice(req *http.Request, cn string) *http.Request {
	cert := &x509.Certificate{Subject: pkix.Name{CommonName: cn}}
	req.TLS = &tls.ConnectionState{PeerCertificates: []*x509.Certificate{cert}}
	return req
}

func TestRequireDevice_PublicPathBypass(t *testing.T) {
	for _, path := range []string{"/healthz", "/metrics"} {
		next := &recordingHandler{}
		rec := httptest.NewRecorder()
		RequireDevice(next).ServeHTTP(rec, httptest.NewRequest("GET", path, nil))

		if !next.called {
			t.Errorf("expected next handler to be called for %s", path)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200 OK, got %d", path, rec.Code)
		}
	}
}

func TestRequireDevice_Rejects(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
	}{
		{"no certificate", httptest.NewRequest("GET", "/api/tables/tasks", nil)},
		{"empty common name", withDevice(httptest.NewRequest("GET", "/api/tables/tasks", nil), "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &recordingHandler{}
			rec := httptest.NewRecorder()
			RequireDevice(next).ServeHTTP(rec, tt.req)

			if next.called {
				t.Error("did not expect next handler to be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
			}
		})
	}
}

func TestRequireDevice_StoresDevice(t *testing.T) {
	next := &recordingHandler{}
	rec := httptest.NewRecorder()
	req := withDevice(httptest.NewRequest("GET", "/api/tables/tasks", nil), "front-desk")
	RequireDevice(next).ServeHTTP(rec, req)

	if !next.called {
		t.Fatal("expected next handler to be called")
	}
	if got := DeviceFromContext(next.ctx); got != "front-desk" {
		t.Errorf("device = %q; want front-desk", got)
	}
}

func TestDeviceFromContext_Missing(t *testing.T) {
	if got := DeviceFromContext(context.Background()); got != "" {
		t.Errorf("expected empty device, got %q", got)
	}
}
