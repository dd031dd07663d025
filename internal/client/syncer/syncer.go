// Package syncer reconciles the local store with the remote table store:
// one bootstrap pull at startup and debounced bulk pushes afterwards.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/nomoslink/internal/client/store"
	"github.com/atinyakov/nomoslink/internal/models"
)

// DefaultDebounce is the trailing window between the last local change and
// the push it triggers.
const DefaultDebounce = 2 * time.Second

// ErrOffline is returned by operations skipped for lack of connectivity.
var ErrOffline = errors.New("offline")

// Remote is the remote key-value table store.
type Remote interface {
	SelectAll(ctx context.Context, table string) (json.RawMessage, error)
	Upsert(ctx context.Context, table string, rows json.RawMessage) error
	Update(ctx context.Context, table string, filter models.Filter, patch map[string]any) error
	Delete(ctx context.Context, table, id string) error
}

// Config tunes an Engine. Zero values pick the defaults.
type Config struct {
	Debounce time.Duration
	Clock    clockwork.Clock
	// Timeout bounds a single push or bootstrap cycle.
	Timeout time.Duration
}

// Engine owns the push schedule and the ready flag.
type Engine struct {
	remote Remote
	store  *store.Store
	conn   Connectivity
	logger *zap.Logger
	cfg    Config

	mu      sync.Mutex
	baseCtx context.Context
	timer   clockwork.Timer
	gen     uint64
	pending bool

	pushMu sync.Mutex
	ready  atomic.Bool
}

// New returns an engine. conn nil means always online.
func New(r Remote, s *store.Store, conn Connectivity, logger *zap.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conn == nil {
		conn = NewSignal(true)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Engine{
		remote:  r,
		store:   s,
		conn:    conn,
		logger:  logger,
		cfg:     cfg,
		baseCtx: context.Background(),
	}
}

// Attach schedules a push for every local change to a synced collection.
// ctx is the parent of timer-driven pushes. The returned func detaches.
func (e *Engine) Attach(ctx context.Context) (detach func()) {
	e.mu.Lock()
	e.baseCtx = ctx
	e.mu.Unlock()

	return e.store.Subscribe(func(ch store.Change) {
		if ch.Origin != store.OriginLocal || ch.Collection == store.KeySession {
			return
		}
		e.Schedule()
	})
}

// Ready reports whether local state may be pushed.
func (e *Engine) Ready() bool { return e.ready.Load() }

// MarkReady lifts the ready guard, e.g. after a non-empty cache restore.
func (e *Engine) MarkReady() { e.ready.Store(true) }

// Schedule (re)arms the debounce timer. Only the newest timer fires.
func (e *Engine) Schedule() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.pending = true
	e.timer = e.cfg.Clock.AfterFunc(e.cfg.Debounce, func() { e.fire(gen) })
	debounceResets.Inc()
}

func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || !e.pending {
		e.mu.Unlock()
		return
	}
	e.pending = false
	e.timer = nil
	ctx := e.baseCtx
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	e.push(ctx)
}

// Pending reports whether a debounced push is armed.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// Close cancels the timer and runs the pending push, if any, once.
func (e *Engine) Close(ctx context.Context) Report {
	e.mu.Lock()
	pending := e.pending
	e.pending = false
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	if !pending {
		return Report{Skipped: SkipNothingPending}
	}
	return e.push(ctx)
}

// SkipReason explains why a push cycle made no remote calls.
type SkipReason string

const (
	SkipOffline        SkipReason = "offline"
	SkipNotReady       SkipReason = "not ready"
	SkipNoAnchors      SkipReason = "anchor collections empty"
	SkipNothingPending SkipReason = "nothing pending"
)

// Report summarizes one push cycle.
type Report struct {
	Skipped SkipReason
	// Pushed lists tables that were upserted successfully.
	Pushed []string
	// Failed maps table to its error. Other tables are unaffected.
	Failed map[string]error
}

// OK reports whether the cycle ran and nothing failed.
func (r Report) OK() bool { return r.Skipped == "" && len(r.Failed) == 0 }

// push runs one push cycle. Cycles never overlap. Only the debounce timer
// and Close call it.
func (e *Engine) push(ctx context.Context) Report {
	e.pushMu.Lock()
	defer e.pushMu.Unlock()

	if !e.conn.Online() {
		pushCycles.WithLabelValues("offline").Inc()
		e.logger.Debug("push skipped: offline")
		return Report{Skipped: SkipOffline}
	}
	if !e.ready.Load() {
		pushCycles.WithLabelValues("not_ready").Inc()
		e.logger.Warn("push skipped: local state not loaded yet")
		return Report{Skipped: SkipNotReady}
	}
	if e.anchorsEmpty() {
		pushCycles.WithLabelValues("no_anchors").Inc()
		e.logger.Warn("push skipped: transactions, court cases and clients are all empty")
		return Report{Skipped: SkipNoAnchors}
	}

	var (
		mu     sync.Mutex
		report = Report{Failed: map[string]error{}}
		g      errgroup.Group
	)
	for _, c := range e.store.Tracked() {
		if c.Len() == 0 {
			continue
		}
		g.Go(func() error {
			err := e.pushOne(ctx, c)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[c.Table()] = err
				return nil
			}
			report.Pushed = append(report.Pushed, c.Table())
			return nil
		})
	}
	_ = g.Wait()

	for table, err := range report.Failed {
		pushFailures.WithLabelValues(table).Inc()
		e.logger.Error("push failed", zap.String("table", table), zap.Error(err))
	}
	if len(report.Failed) > 0 {
		pushCycles.WithLabelValues("partial").Inc()
	} else {
		pushCycles.WithLabelValues("ok").Inc()
		e.logger.Info("push complete", zap.Int("tables", len(report.Pushed)))
	}
	return report
}

func (e *Engine) pushOne(ctx context.Context, c store.Tracked) error {
	rows, err := c.Snapshot()
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.Name(), err)
	}
	if err := e.remote.Upsert(ctx, c.Table(), rows); err != nil {
		return fmt.Errorf("upsert %s: %w", c.Table(), err)
	}
	return nil
}

func (e *Engine) anchorsEmpty() bool {
	for _, c := range e.store.Anchors() {
		if c.Len() > 0 {
			return false
		}
	}
	return true
}

// Bootstrap pulls every table in parallel. Local collections are replaced
// only when every fetch and decode succeeded; otherwise the current state
// stays authoritative and the error is returned.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if !e.conn.Online() {
		bootstraps.WithLabelValues("offline").Inc()
		return ErrOffline
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	tracked := e.store.Tracked()
	commits := make([]func(store.Origin), len(tracked))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range tracked {
		g.Go(func() error {
			raw, err := e.remote.SelectAll(gctx, c.Table())
			if err != nil {
				return fmt.Errorf("select %s: %w", c.Table(), err)
			}
			if len(raw) == 0 {
				raw = json.RawMessage("[]")
			}
			commit, err := c.Prepare(raw)
			if err != nil {
				return err
			}
			commits[i] = commit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		bootstraps.WithLabelValues("failed").Inc()
		return fmt.Errorf("bootstrap: %w", err)
	}

	for _, commit := range commits {
		commit(store.OriginRemote)
	}
	e.ready.Store(true)
	bootstraps.WithLabelValues("ok").Inc()
	e.logger.Info("bootstrap complete", zap.Int("tables", len(tracked)))
	return nil
}

// Patch applies a partial update to remote rows matching filter.
func (e *Engine) Patch(ctx context.Context, table string, filter models.Filter, patch map[string]any) error {
	if !e.conn.Online() {
		return ErrOffline
	}
	if err := e.remote.Update(ctx, table, filter, patch); err != nil {
		return fmt.Errorf("patch %s: %w", table, err)
	}
	return nil
}

// Remove deletes one remote row.
func (e *Engine) Remove(ctx context.Context, table, id string) error {
	if !e.conn.Online() {
		return ErrOffline
	}
	if err := e.remote.Delete(ctx, table, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, id, err)
	}
	return nil
}
