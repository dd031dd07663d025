package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/nomoslink/internal/models"
)

func recordChanges(s *Store) *[]Change {
	var got []Change
	s.Subscribe(func(ch Change) { got = append(got, ch) })
	return &got
}

func TestCollection_PreservesInsertionOrder(t *testing.T) {
	s := New()
	s.Clients.Append(models.Client{ID: "c3", Name: "Zed"})
	s.Clients.Append(models.Client{ID: "c1", Name: "Amy"})
	s.Clients.Append(models.Client{ID: "c2", Name: "Bo"})

	ids := []string{}
	for _, c := range s.Clients.All() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c3", "c1", "c2"}, ids)
}

func TestCollection_AllReturnsCopy(t *testing.T) {
	s := New()
	s.Users.Append(models.User{ID: "u1", Name: "Ann"})

	users := s.Users.All()
	users[0].Name = "changed"

	got, ok := s.Users.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "Ann", got.Name)
}

func TestCollection_UpsertAndModify(t *testing.T) {
	s := New()
	s.Transactions.Append(models.Transaction{ID: "TX-1", BilledAmount: 100, PaidAmount: 10})
	s.Transactions.Upsert(models.Transaction{ID: "TX-1", BilledAmount: 100, PaidAmount: 100})
	s.Transactions.Upsert(models.Transaction{ID: "TX-2", BilledAmount: 5})

	require.Equal(t, 2, s.Transactions.Len())
	tx, _ := s.Transactions.Get("TX-1")
	assert.Equal(t, int64(0), tx.Balance)
	tx2, _ := s.Transactions.Get("TX-2")
	assert.Equal(t, int64(5), tx2.Balance)
	assert.Equal(t, int64(5), tx2.Amount)

	ok := s.Transactions.Modify("TX-2", func(cur models.Transaction) (models.Transaction, bool) {
		cur.PaidAmount = 2
		return cur, true
	})
	require.True(t, ok)
	tx2, _ = s.Transactions.Get("TX-2")
	assert.Equal(t, int64(3), tx2.Balance)
}

func TestCollection_NoOpEmitsNothing(t *testing.T) {
	s := New()
	changes := recordChanges(s)

	assert.False(t, s.Tasks.Remove("missing"))
	assert.False(t, s.Tasks.Modify("missing", func(cur models.Task) (models.Task, bool) { return cur, true }))
	assert.Empty(t, *changes)

	s.Tasks.Append(models.Task{ID: "t1"})
	assert.False(t, s.Tasks.Modify("t1", func(cur models.Task) (models.Task, bool) { return cur, false }))
	assert.Equal(t, []Change{{Collection: KeyTasks, Origin: OriginLocal}}, *changes)
}

func TestCollection_ReplaceCarriesOrigin(t *testing.T) {
	s := New()
	changes := recordChanges(s)

	s.Letters.Replace([]models.Letter{{ID: "L1", Billed: 50, Paid: 20}}, OriginRemote)

	require.Len(t, *changes, 1)
	assert.Equal(t, Change{Collection: KeyLetters, Origin: OriginRemote}, (*changes)[0])
	l, _ := s.Letters.Get("L1")
	assert.Equal(t, int64(30), l.Balance, "replace re-derives balance")
}

func TestCollection_SnapshotRestoreRoundTrip(t *testing.T) {
	src := New()
	src.CourtCases.Append(models.CourtCase{
		ID: "C2", FileName: "Okello v Ntege", Billed: 900, Paid: 100, Status: models.StatusOngoing,
		ProgressNotes: []models.ProgressNote{{ID: "n1", Message: "mention", AuthorID: "u1", Date: "2024-01-02 10:00:00"}},
	})
	src.CourtCases.Append(models.CourtCase{ID: "C1", FileName: "Re Estate", Billed: 10, Paid: 10})

	data, err := src.CourtCases.Snapshot()
	require.NoError(t, err)

	dst := New()
	require.NoError(t, dst.CourtCases.Restore(data, OriginCache))
	assert.Equal(t, src.CourtCases.All(), dst.CourtCases.All())
}

func TestCollection_RestoreRejectsGarbage(t *testing.T) {
	s := New()
	s.Expenses.Append(models.Expense{ID: "e1"})

	err := s.Expenses.Restore([]byte("{not json"), OriginCache)
	require.Error(t, err)
	assert.Equal(t, 1, s.Expenses.Len(), "failed restore keeps current state")
}

func TestCollection_ConcurrentAppendsDoNotLoseUpdates(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Expenses.Update(func(prev []models.Expense) []models.Expense {
				return append(prev, models.Expense{ID: string(rune('a' + i%26)), Amount: int64(i)})
			})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Expenses.Len())
}

func TestStore_Session(t *testing.T) {
	s := New()
	changes := recordChanges(s)

	_, ok := s.Session()
	assert.False(t, ok)

	u := &models.User{ID: "u1", Name: "Ann", Role: models.RoleLawyer}
	s.SetSession(u)
	u.Name = "mutated after set"

	got, ok := s.Session()
	require.True(t, ok)
	assert.Equal(t, "Ann", got.Name)

	s.SetSession(nil)
	_, ok = s.Session()
	assert.False(t, ok)
	assert.Equal(t, []Change{
		{Collection: KeySession, Origin: OriginLocal},
		{Collection: KeySession, Origin: OriginLocal},
	}, *changes)
}

func TestStore_Unsubscribe(t *testing.T) {
	s := New()
	calls := 0
	unsubscribe := s.Subscribe(func(Change) { calls++ })

	s.Users.Append(models.User{ID: "u1"})
	unsubscribe()
	s.Users.Append(models.User{ID: "u2"})

	assert.Equal(t, 1, calls)
}

func TestStore_LookupAndAnchors(t *testing.T) {
	s := New()
	c, ok := s.Lookup(KeyCourtCases)
	require.True(t, ok)
	assert.Equal(t, models.TableCourtCases, c.Table())

	_, ok = s.Lookup("secrets")
	assert.False(t, ok)

	names := []string{}
	for _, a := range s.Anchors() {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{KeyTransactions, KeyCourtCases, KeyClients}, names)
	assert.Len(t, s.Tracked(), 10)
}
