// Package store is the in-memory source of truth for every collection the
// practice client reads: users, files, invoices, tasks, notifications and
// the authenticated session.
package store

import (
	"sync"

	"github.com/atinyakov/nomoslink/internal/models"
)

// Origin tells subscribers where a change came from.
type Origin string

const (
	// OriginLocal is a mutation made through the domain API.
	OriginLocal Origin = "local"
	// OriginRemote is a bootstrap overwrite from the remote store.
	OriginRemote Origin = "remote"
	// OriginCache is a restore from the durable cache.
	OriginCache Origin = "cache"
)

// Change describes one committed write.
type Change struct {
	Collection string
	Origin     Origin
}

// Cache keys.
const (
	KeyUsers         = "users"
	KeyTransactions  = "transactions"
	KeyCourtCases    = "courtCases"
	KeyLetters       = "letters"
	KeyInvoices      = "invoices"
	KeyClients       = "clients"
	KeyTasks         = "tasks"
	KeyCommLogs      = "commLogs"
	KeyNotifications = "notifications"
	KeyExpenses      = "expenses"
	// KeySession holds the authenticated user.
	KeySession = "currentUser"
)

// Store holds every collection plus the session slot.
type Store struct {
	Users         *Collection[models.User]
	Transactions  *Collection[models.Transaction]
	CourtCases    *Collection[models.CourtCase]
	Letters       *Collection[models.Letter]
	Invoices      *Collection[models.Invoice]
	Clients       *Collection[models.Client]
	Tasks         *Collection[models.Task]
	CommLogs      *Collection[models.CommunicationLog]
	Notifications *Collection[models.AppNotification]
	Expenses      *Collection[models.Expense]

	sessionMu sync.RWMutex
	session   *models.User

	subMu  sync.RWMutex
	nextID int
	subs   map[int]func(Change)
	order  []int
}

// New returns an empty store.
func New() *Store {
	s := &Store{subs: make(map[int]func(Change))}
	s.Users = newCollection[models.User](KeyUsers, models.TableUsers, s.publish)
	s.Transactions = newCollection[models.Transaction](KeyTransactions, models.TableTransactions, s.publish)
	s.CourtCases = newCollection[models.CourtCase](KeyCourtCases, models.TableCourtCases, s.publish)
	s.Letters = newCollection[models.Letter](KeyLetters, models.TableLetters, s.publish)
	s.Invoices = newCollection[models.Invoice](KeyInvoices, models.TableInvoices, s.publish)
	s.Clients = newCollection[models.Client](KeyClients, models.TableClients, s.publish)
	s.Tasks = newCollection[models.Task](KeyTasks, models.TableTasks, s.publish)
	s.CommLogs = newCollection[models.CommunicationLog](KeyCommLogs, models.TableCommLogs, s.publish)
	s.Notifications = newCollection[models.AppNotification](KeyNotifications, models.TableNotifications, s.publish)
	s.Expenses = newCollection[models.Expense](KeyExpenses, models.TableExpenses, s.publish)
	return s
}

// Tracked returns every collection in a stable order.
func (s *Store) Tracked() []Tracked {
	return []Tracked{
		s.Users, s.Transactions, s.CourtCases, s.Letters, s.Invoices,
		s.Clients, s.Tasks, s.CommLogs, s.Notifications, s.Expenses,
	}
}

// Lookup finds a collection by cache key.
func (s *Store) Lookup(name string) (Tracked, bool) {
	for _, c := range s.Tracked() {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Anchors are the collections whose joint emptiness marks a client that
// has not loaded any data yet.
func (s *Store) Anchors() []Tracked {
	return []Tracked{s.Transactions, s.CourtCases, s.Clients}
}

// Session returns the authenticated user.
func (s *Store) Session() (models.User, bool) {
	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()
	if s.session == nil {
		return models.User{}, false
	}
	return *s.session, true
}

// SetSession stores u as the authenticated user; nil logs out.
func (s *Store) SetSession(u *models.User) {
	s.setSession(u, OriginLocal)
}

// RestoreSession sets the session without marking it a local mutation.
func (s *Store) RestoreSession(u *models.User) {
	s.setSession(u, OriginCache)
}

func (s *Store) setSession(u *models.User, origin Origin) {
	s.sessionMu.Lock()
	if u == nil {
		s.session = nil
	} else {
		cp := *u
		s.session = &cp
	}
	s.sessionMu.Unlock()

	s.publish(Change{Collection: KeySession, Origin: origin})
}

// Subscribe registers fn for every committed change. Listeners run
// synchronously, in registration order, after the writer released its
// lock. The returned func removes the listener.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *Store) publish(ch Change) {
	s.subMu.RLock()
	fns := make([]func(Change), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(ch)
	}
}
