// Package practice is the domain mutation API of the client: every business
// rule about files, notes, tasks and ledgers lives here. Operations never
// return errors to the caller for bad input or missing records; they
// degrade to a logged no-op.
package practice

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/client/store"
	"github.com/atinyakov/nomoslink/internal/models"
)

// Notifier is the notification engine as seen by mutations.
type Notifier interface {
	Send(recipientID, message string, typ models.NotificationType, link models.Link) bool
	MarkAllRead(ctx context.Context, userID string)
}

// Deleter removes a row from the remote store.
type Deleter interface {
	Remove(ctx context.Context, table, id string) error
}

// Patch is a partial update keyed by JSON field name. Amount values may be
// numbers or numeric strings.
type Patch map[string]any

// App is the application state shared by every mutation handler.
type App struct {
	store    *store.Store
	notifier Notifier
	deleter  Deleter
	logger   *zap.Logger
	clock    clockwork.Clock
	newID    func(prefix string) string
}

// Option configures an App.
type Option func(*App)

// WithClock overrides the time source used for stamps.
func WithClock(c clockwork.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithIDs overrides id generation.
func WithIDs(fn func(prefix string) string) Option {
	return func(a *App) { a.newID = fn }
}

// New wires an App. deleter may be nil for a purely local client.
func New(s *store.Store, n Notifier, d Deleter, logger *zap.Logger, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		store:    s,
		notifier: n,
		deleter:  d,
		logger:   logger,
		clock:    clockwork.NewRealClock(),
		newID:    func(prefix string) string { return prefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store exposes the underlying store for reads.
func (a *App) Store() *store.Store { return a.store }

func (a *App) stamp() string { return a.clock.Now().Format(models.DisplayLayout) }
func (a *App) today() string { return a.clock.Now().Format(models.DateLayout) }

// actor returns the session user or logs why the call is ignored.
func (a *App) actor(op string) (models.User, bool) {
	u, ok := a.store.Session()
	if !ok {
		a.logger.Debug("ignored without session", zap.String("op", op))
	}
	return u, ok
}

// CurrentUser returns the session user.
func (a *App) CurrentUser() (models.User, bool) { return a.store.Session() }

// SetSession makes u the acting user.
func (a *App) SetSession(u models.User) { a.store.SetSession(&u) }

// Login starts a session for the user matching email and password.
func (a *App) Login(email, password string) bool {
	email = strings.TrimSpace(email)
	for _, u := range a.store.Users.All() {
		if !strings.EqualFold(u.Email, email) || u.Password == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1 {
			a.store.SetSession(&u)
			a.logger.Info("login", zap.String("user", u.ID), zap.String("role", string(u.Role)))
			return true
		}
	}
	a.logger.Info("login rejected", zap.String("email", email))
	return false
}

// Logout clears the session.
func (a *App) Logout() { a.store.SetSession(nil) }

// AddUser appends u, generating an id when empty. Duplicate ids and
// unknown roles are rejected.
func (a *App) AddUser(u models.User) (models.User, bool) {
	if !u.Role.Valid() {
		a.logger.Warn("add user: unknown role", zap.String("role", string(u.Role)))
		return models.User{}, false
	}
	if u.ID == "" {
		u.ID = a.newID("U-")
	}
	return u, addUnique(a, a.store.Users, u)
}

// SeedAdmin adds u as an admin when there are no users at all, so a fresh
// install can log in. It reports whether u was added.
func (a *App) SeedAdmin(u models.User) bool {
	if u.Email == "" || u.Password == "" {
		return false
	}
	if u.ID == "" {
		u.ID = a.newID("U-")
	}
	u.Role = models.RoleAdmin
	return a.store.Users.Apply(func(prev []models.User) ([]models.User, bool) {
		if len(prev) > 0 {
			return prev, false
		}
		return append(prev, u), true
	})
}

// DeleteUser removes the user locally and from the remote store.
func (a *App) DeleteUser(ctx context.Context, id string) bool {
	return a.remove(ctx, a.store.Users, models.TableUsers, id)
}

// Lawyers returns every user who is not an admin.
func (a *App) Lawyers() []models.User {
	var out []models.User
	for _, u := range a.store.Users.All() {
		if u.Role != models.RoleAdmin {
			out = append(out, u)
		}
	}
	return out
}

// MarkNotificationsRead marks the session user's notifications read.
func (a *App) MarkNotificationsRead(ctx context.Context) {
	u, ok := a.actor("mark read")
	if !ok {
		return
	}
	a.notifier.MarkAllRead(ctx, u.ID)
}

func addUnique[T models.Record](a *App, c *store.Collection[T], item T) bool {
	added := c.Apply(func(prev []T) ([]T, bool) {
		for _, p := range prev {
			if p.GetID() == item.GetID() {
				return prev, false
			}
		}
		return append(prev, item), true
	})
	if !added {
		a.logger.Warn("duplicate id ignored", zap.String("collection", c.Name()), zap.String("id", item.GetID()))
	}
	return added
}

// remove deletes id locally and then, best effort, remotely. Upserts never
// delete, so without the remote call the row would come back on the next
// bootstrap.
func (a *App) remove(ctx context.Context, c interface {
	Remove(string) bool
	Name() string
}, table, id string) bool {
	if !c.Remove(id) {
		a.logger.Debug("delete: not found", zap.String("collection", c.Name()), zap.String("id", id))
		return false
	}
	if a.deleter == nil {
		return true
	}
	if err := a.deleter.Remove(ctx, table, id); err != nil {
		a.logger.Warn("remote delete failed", zap.String("table", table), zap.String("id", id), zap.Error(err))
	}
	return true
}
