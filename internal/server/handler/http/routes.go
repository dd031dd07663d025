package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the table store API.
//
// Routes:
//
//	GET    /healthz                  liveness check
//	GET    /metrics                  Prometheus scrape endpoint
//	GET    /api/tables/{table}       tableHandler.List
//	PUT    /api/tables/{table}       tableHandler.Upsert
//	PATCH  /api/tables/{table}       tableHandler.Patch
//	DELETE /api/tables/{table}/{id}  tableHandler.Delete
//
// Middleware chain (applied in order):
//  1. RequestID and Recoverer
//  2. AllowContentType("application/json") rejects non-JSON bodies
//  3. WithRequestLogging(logger) logs incoming requests
//  4. RequireDevice admits only named device certificates
func NewRouter(tableHandler *TableHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.RequireDevice)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/tables/{table}", func(r chi.Router) {
		r.Get("/", tableHandler.List)
		r.Put("/", tableHandler.Upsert)
		r.Patch("/", tableHandler.Patch)
		r.Delete("/{id}", tableHandler.Delete)
	})

	return r
}
