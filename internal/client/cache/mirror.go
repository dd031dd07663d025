package cache

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/client/store"
	"github.com/atinyakov/nomoslink/internal/models"
)

// Mirror keeps a Cache in step with a Store.
type Mirror struct {
	cache  Cache
	store  *store.Store
	logger *zap.Logger
}

// NewMirror returns a mirror of s backed by c.
func NewMirror(c Cache, s *store.Store, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{cache: c, store: s, logger: logger}
}

// Restore loads every cached collection and the session into the store.
// Missing keys keep the empty default; corrupt entries are logged and
// skipped. It returns how many collections came back non-empty.
func (m *Mirror) Restore() int {
	restored := 0
	for _, c := range m.store.Tracked() {
		raw, ok := m.cache.Get(c.Name())
		if !ok {
			continue
		}
		if err := c.Restore([]byte(raw), store.OriginCache); err != nil {
			m.logger.Warn("discarding corrupt cache entry", zap.String("key", c.Name()), zap.Error(err))
			continue
		}
		if c.Len() > 0 {
			restored++
		}
	}

	if raw, ok := m.cache.Get(store.KeySession); ok {
		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID == "" {
			m.logger.Warn("discarding corrupt session entry", zap.Error(err))
		} else {
			m.store.RestoreSession(&u)
		}
	}

	m.logger.Info("cache restored", zap.Int("collections", restored))
	return restored
}

// Attach subscribes the mirror to the store. Every change not coming from
// the cache itself is written through. The returned func detaches.
func (m *Mirror) Attach() (detach func()) {
	return m.store.Subscribe(m.onChange)
}

func (m *Mirror) onChange(ch store.Change) {
	if ch.Origin == store.OriginCache {
		return
	}
	if ch.Collection == store.KeySession {
		m.writeSession()
		return
	}

	c, ok := m.store.Lookup(ch.Collection)
	if !ok {
		return
	}
	data, err := c.Snapshot()
	if err != nil {
		m.logger.Error("encode collection", zap.String("key", ch.Collection), zap.Error(err))
		return
	}
	if err := m.cache.Set(ch.Collection, string(data)); err != nil {
		m.logger.Error("write cache", zap.String("key", ch.Collection), zap.Error(err))
	}
}

func (m *Mirror) writeSession() {
	u, ok := m.store.Session()
	if !ok {
		if err := m.cache.Delete(store.KeySession); err != nil {
			m.logger.Error("clear session", zap.Error(err))
		}
		return
	}
	data, err := json.Marshal(u)
	if err != nil {
		m.logger.Error("encode session", zap.Error(err))
		return
	}
	if err := m.cache.Set(store.KeySession, string(data)); err != nil {
		m.logger.Error("write session", zap.Error(err))
	}
}
