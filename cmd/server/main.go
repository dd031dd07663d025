// Package main initializes and starts the NomosLink table store HTTPS server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/config"
	"github.com/atinyakov/nomoslink/internal/db"
	"github.com/atinyakov/nomoslink/internal/logger"
	"github.com/atinyakov/nomoslink/internal/repository"
	"github.com/atinyakov/nomoslink/internal/server/handler/http"
	"github.com/atinyakov/nomoslink/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(cmp.Or(options.LogLevel, "Info")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Purge soft-deleted rows in the background.
	db.StartSoftDeleteCleaner(ctx, postgresDB,
		options.CleanupInterval.Duration,
		options.Retention.Duration,
		zapLogger,
	)

	tableRepo := repository.NewPostgresTableRepository(postgresDB)
	tableService := service.NewTableService(tableRepo)
	tableHandler := &http.TableHandler{TableService: tableService}

	// Build the router with middleware and routes.
	router := http.NewRouter(tableHandler, zapLogger)

	tlsConfig, err := serverTLS(options)
	if err != nil {
		zapLogger.Fatal("failed to configure TLS", zap.Error(err))
	}

	// Create and start the HTTPS server.
	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
	if err := server.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTPS server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

// serverTLS loads the server key pair and the CA used to verify client
// certificates.
func serverTLS(options *config.Options) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(options.CertFile, options.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load server cert/key: %w", err)
	}

	caCert, err := os.ReadFile(options.CAFile)
	if err != nil {
		return nil, fmt.Errorf("read CA cert: %w", err)
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		return nil, errors.New("append CA cert to pool")
	}

	// Client certificates are verified when given; RequireDevice rejects API
	// calls without one while /healthz stays reachable.
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.VerifyClientCertIfGiven,
		ClientCAs:    caCertPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
