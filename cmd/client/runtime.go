package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/client/cache"
	"github.com/atinyakov/nomoslink/internal/client/notify"
	"github.com/atinyakov/nomoslink/internal/client/practice"
	"github.com/atinyakov/nomoslink/internal/client/remote"
	"github.com/atinyakov/nomoslink/internal/client/store"
	"github.com/atinyakov/nomoslink/internal/client/syncer"
	"github.com/atinyakov/nomoslink/internal/config"
)

// runtime is the wired client: store, cache mirror, sync and notification
// engines and the domain API.
type runtime struct {
	store  *store.Store
	app    *practice.App
	notes  *notify.Engine
	sync   *syncer.Engine
	conn   *syncer.Signal
	logger *zap.Logger

	closers []func()
}

// openRuntime restores the cache, attaches the mirror and the sync engine,
// and bootstraps from the server when it is reachable. With offline set
// the server is never contacted.
func openRuntime(ctx context.Context, cfg config.Client, logger *zap.Logger, offline bool) (*runtime, error) {
	rt := &runtime{logger: logger, store: store.New(), conn: syncer.NewSignal(false)}

	var c cache.Cache
	switch cfg.Cache.Driver {
	case "", "sqlite":
		db, err := cache.OpenSQLite(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = db.Close() })
		c = db
	case "dir":
		fc, err := cache.NewFileCache(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		c = fc
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}

	if cfg.Cache.KeyFile != "" {
		sealed, err := cache.NewSealedFromFile(c, cfg.Cache.KeyFile)
		if err != nil {
			rt.close(ctx)
			return nil, fmt.Errorf("open sealed cache: %w", err)
		}
		c = sealed
	}

	mirror := cache.NewMirror(c, rt.store, logger.Named("cache"))
	restored := mirror.Restore()
	rt.closers = append(rt.closers, mirror.Attach())

	hc := &http.Client{Timeout: cfg.Server.Timeout.Duration}
	if !offline {
		if mtls, err := remote.LoadClientCertificate(cfg.Server.CertFile, cfg.Server.KeyFile, cfg.Server.CAFile); err != nil {
			logger.Warn("client certificate unavailable, working offline", zap.Error(err))
			offline = true
		} else {
			hc = mtls
			hc.Timeout = cfg.Server.Timeout.Duration
		}
	}
	rc := remote.New(cfg.Server.URL, hc, logger.Named("remote"))

	rt.sync = syncer.New(rc, rt.store, rt.conn, logger.Named("sync"), syncer.Config{
		Debounce: cfg.Sync.Debounce.Duration,
		Timeout:  cfg.Server.Timeout.Duration,
		Clock:    clockwork.NewRealClock(),
	})
	if restored > 0 {
		rt.sync.MarkReady()
	}
	rt.closers = append(rt.closers, rt.sync.Attach(ctx))

	rt.notes = notify.New(rt.store, rt.sync, logger.Named("notify"), notify.WithWindow(cfg.Notify.Window.Duration))
	rt.app = practice.New(rt.store, rt.notes, rt.sync, logger.Named("practice"))

	if offline {
		return rt, nil
	}

	rt.conn.SetOnline(rc.Ping(ctx) == nil)
	if err := rt.sync.Bootstrap(ctx); err != nil {
		logger.Warn("bootstrap failed, using cached data", zap.Error(err))
	}

	watchCtx, cancel := context.WithCancel(ctx)
	go rc.Watch(watchCtx, rt.conn, cfg.Server.PingInterval.Duration)
	rt.closers = append(rt.closers, cancel)

	return rt, nil
}

// close drains a pending push and releases resources in reverse order.
func (rt *runtime) close(ctx context.Context) {
	if rt.sync != nil {
		report := rt.sync.Close(ctx)
		if !report.OK() && report.Skipped != syncer.SkipNothingPending {
			rt.logger.Warn("final push incomplete",
				zap.String("skipped", string(report.Skipped)), zap.Int("failed", len(report.Failed)))
		}
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}
