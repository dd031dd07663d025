// Package notify generates cross-user alerts with a short deduplication
// window and marks them read.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/client/store"
	"github.com/atinyakov/nomoslink/internal/models"
)

// DefaultWindow suppresses repeats of the same message to the same user.
const DefaultWindow = 3 * time.Second

var (
	sentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nomoslink",
		Subsystem: "notify",
		Name:      "sent_total",
		Help:      "Notifications created, by type.",
	}, []string{"type"})
	suppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nomoslink",
		Subsystem: "notify",
		Name:      "suppressed_total",
		Help:      "Notifications dropped as duplicates.",
	})
)

// Patcher updates remote rows matching a filter.
type Patcher interface {
	Patch(ctx context.Context, table string, filter models.Filter, patch map[string]any) error
}

// Engine creates notifications in the store's notifications collection.
type Engine struct {
	store   *store.Store
	patcher Patcher
	logger  *zap.Logger
	clock   clockwork.Clock
	window  time.Duration
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithWindow overrides the dedup window. Non-positive values keep the
// default.
func WithWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.window = d
		}
	}
}

// New returns an engine. patcher may be nil, in which case MarkAllRead is
// local only.
func New(s *store.Store, patcher Patcher, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		store:   s,
		patcher: patcher,
		logger:  logger,
		clock:   clockwork.NewRealClock(),
		window:  DefaultWindow,
		newID:   func() string { return "NOTIF-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send prepends a notification for recipientID unless an identical message
// to the same recipient was created less than the window ago. It reports
// whether a notification was created.
func (e *Engine) Send(recipientID, message string, typ models.NotificationType, link models.Link) bool {
	if recipientID == "" {
		return false
	}
	now := e.clock.Now()

	created := e.store.Notifications.Apply(func(prev []models.AppNotification) ([]models.AppNotification, bool) {
		for _, n := range prev {
			if n.RecipientID == recipientID && n.Message == message && now.Sub(n.Date) < e.window {
				return prev, false
			}
		}
		n := models.AppNotification{
			ID:          e.newID(),
			RecipientID: recipientID,
			Type:        typ,
			Message:     message,
			Date:        now,
			RelatedID:   link.ID,
			RelatedType: link.Type,
		}
		return append([]models.AppNotification{n}, prev...), true
	})

	if !created {
		suppressedTotal.Inc()
		e.logger.Debug("duplicate notification suppressed",
			zap.String("recipient", recipientID), zap.String("message", message))
		return false
	}
	sentTotal.WithLabelValues(string(typ)).Inc()
	return true
}

// MarkAllRead flips every unread notification of userID and then asks the
// remote store to do the same. Remote failures are logged only.
func (e *Engine) MarkAllRead(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	e.store.Notifications.Apply(func(prev []models.AppNotification) ([]models.AppNotification, bool) {
		changed := false
		for i := range prev {
			if prev[i].RecipientID == userID && !prev[i].Read {
				prev[i].Read = true
				changed = true
			}
		}
		return prev, changed
	})

	if e.patcher == nil {
		return
	}
	err := e.patcher.Patch(ctx, models.TableNotifications,
		models.Filter{Field: "recipientId", Value: userID},
		map[string]any{"read": true})
	if err != nil {
		e.logger.Warn("remote mark-read failed", zap.String("user", userID), zap.Error(err))
	}
}

// ForUser returns userID's notifications, newest first.
func (e *Engine) ForUser(userID string) []models.AppNotification {
	var out []models.AppNotification
	for _, n := range e.store.Notifications.All() {
		if n.RecipientID == userID {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount returns the number of unread notifications for userID.
func (e *Engine) UnreadCount(userID string) int {
	count := 0
	for _, n := range e.store.Notifications.All() {
		if n.RecipientID == userID && !n.Read {
			count++
		}
	}
	return count
}
