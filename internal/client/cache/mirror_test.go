package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/nomoslink/internal/client/store"
	"github.com/atinyakov/nomoslink/internal/models"
)

func TestMirror_RestartRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := OpenSQLite(path)
	require.NoError(t, err)
	s := store.New()
	m := NewMirror(c, s, zap.NewNop())
	assert.Equal(t, 0, m.Restore())
	m.Attach()

	s.SetSession(&models.User{ID: "u1", Name: "Ann", Role: models.RoleLawyer})
	s.Transactions.Append(models.Transaction{ID: "TX-1", FileName: "Plot 12", BilledAmount: 100000, PaidAmount: 40000})
	s.Transactions.Append(models.Transaction{ID: "TX-2", FileName: "Plot 9", BilledAmount: 5})
	s.Clients.Append(models.Client{ID: "CL-1", Name: "Acme", Type: models.ClientCorporate})
	require.NoError(t, c.Close())

	c, err = OpenSQLite(path)
	require.NoError(t, err)
	defer c.Close()
	restored := store.New()
	n := NewMirror(c, restored, zap.NewNop()).Restore()

	assert.Equal(t, 2, n)
	assert.Equal(t, s.Transactions.All(), restored.Transactions.All())
	assert.Equal(t, s.Clients.All(), restored.Clients.All())
	assert.Equal(t, 0, restored.CourtCases.Len())

	u, ok := restored.Session()
	require.True(t, ok)
	assert.Equal(t, "Ann", u.Name)
}

func TestMirror_RestoreDoesNotWriteBack(t *testing.T) {
	c := newMemCache()
	c.data[store.KeyUsers] = `[{"id":"u1","name":"Ann","role":"admin"}]`
	s := store.New()
	m := NewMirror(c, s, nil)
	m.Attach()

	c.failSet = errDiskFull
	assert.Equal(t, 1, m.Restore())
	assert.Equal(t, 1, s.Users.Len())
}

func TestMirror_LogoutClearsSession(t *testing.T) {
	c := newMemCache()
	s := store.New()
	NewMirror(c, s, nil).Attach()

	s.SetSession(&models.User{ID: "u1"})
	_, ok := c.Get(store.KeySession)
	require.True(t, ok)

	s.SetSession(nil)
	_, ok = c.Get(store.KeySession)
	assert.False(t, ok)
}

func TestMirror_RemoteChangesArePersisted(t *testing.T) {
	c := newMemCache()
	s := store.New()
	NewMirror(c, s, nil).Attach()

	s.Letters.Replace([]models.Letter{{ID: "L1", Billed: 10}}, store.OriginRemote)

	raw, ok := c.Get(store.KeyLetters)
	require.True(t, ok)
	assert.Contains(t, raw, `"id":"L1"`)
}

func TestMirror_CorruptEntriesAreSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := newMemCache()
	c.data[store.KeyTasks] = `{"oops"`
	c.data[store.KeyClients] = `[{"id":"CL-1"}]`
	c.data[store.KeySession] = `not json`

	s := store.New()
	n := NewMirror(c, s, zap.New(core)).Restore()

	assert.Equal(t, 1, n)
	assert.Equal(t, 0, s.Tasks.Len())
	_, ok := s.Session()
	assert.False(t, ok)
	assert.Equal(t, 2, logs.FilterMessageSnippet("discarding corrupt").Len())
}

func TestMirror_WriteFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	c := newMemCache()
	c.failSet = errDiskFull
	s := store.New()
	NewMirror(c, s, zap.New(core)).Attach()

	s.Expenses.Append(models.Expense{ID: "E1", Amount: 10})

	assert.Equal(t, 1, s.Expenses.Len(), "store write stands")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "write cache", logs.All()[0].Message)
}
