package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/nomoslink/internal/models"
)

func TestLabels(t *testing.T) {
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	note := []models.ProgressNote{{ID: "n1"}}

	tests := []struct {
		name string
		in   Subject
		want []Label
	}{
		{"fresh file", Subject{}, []Label{LabelNoUpdates}},
		{"paid in full", Subject{Billed: 100, Paid: 100, Notes: 1}, []Label{LabelPaid}},
		{"overpaid", Subject{Billed: 100, Paid: 150, Notes: 1}, []Label{LabelPaid}},
		{"part paid", Subject{Billed: 100, Paid: 10, Notes: 2}, []Label{LabelUnpaid}},
		{"nothing paid yet has no payment label", Subject{Billed: 100, Notes: 1}, nil},
		{"past hearing", Subject{NextDate: "2024-05-01", Notes: 1}, []Label{LabelOverdue}},
		{"future hearing", Subject{NextDate: "2024-06-01"}, []Label{LabelUpcoming, LabelNoUpdates}},
		{"bad date ignored", Subject{NextDate: "next week", Notes: 1}, nil},
		{"court case adapter", CourtCaseSubject(models.CourtCase{Billed: 5, Paid: 1, NextCourtDate: "2024-05-01", ProgressNotes: note}),
			[]Label{LabelUnpaid, LabelOverdue}},
		{"transaction adapter", TransactionSubject(models.Transaction{BilledAmount: 5, PaidAmount: 5}),
			[]Label{LabelPaid, LabelNoUpdates}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Labels(tt.in, now))
		})
	}
}

func TestLawyerMetrics(t *testing.T) {
	lena := models.User{ID: "L", Role: models.RoleLawyer}
	notes := func(n int) []models.ProgressNote { return make([]models.ProgressNote, n) }

	txs := []models.Transaction{
		{ID: "T1", LawyerID: "L", BilledAmount: 1000, PaidAmount: 250, ProgressNotes: notes(2)},
		{ID: "T2", LawyerID: "L", BilledAmount: 1000, PaidAmount: 0},
		{ID: "T3", LawyerID: "X", BilledAmount: 9999, ProgressNotes: notes(5)},
	}
	cases := []models.CourtCase{
		{ID: "C1", LawyerID: "L", Status: models.StatusCompleted, ProgressNotes: notes(1)},
		{ID: "C2", LawyerID: "L", Status: models.StatusOngoing},
		{ID: "C3", LawyerID: "X", Status: models.StatusCompleted},
	}
	letters := []models.Letter{{ID: "L1", LawyerID: "L"}, {ID: "L2"}}

	m := LawyerMetrics(lena, txs, cases, letters)

	assert.Equal(t, Workload{Transactions: 2, Cases: 2, Letters: 1}, m.Workload)
	assert.Equal(t, Finance{Billed: 2000, Paid: 250, Balance: 1750, CollectionRate: 13}, m.Finance)
	assert.Equal(t, Productivity{Notes: 3, CompletedCases: 1, Score: 5}, m.Productivity)
}

func TestLawyerMetrics_NoBilling(t *testing.T) {
	m := LawyerMetrics(models.User{ID: "L"}, nil, nil, nil)
	assert.Zero(t, m.Finance.CollectionRate)
	assert.Zero(t, m.Productivity.Score)
}

func TestLeaderboard_SkipsAdmins(t *testing.T) {
	users := []models.User{{ID: "A", Role: models.RoleAdmin}, {ID: "L", Role: models.RoleLawyer}, {ID: "M", Role: models.RoleManager}}
	board := Leaderboard(users, nil, nil, nil)
	if assert.Len(t, board, 2) {
		assert.Equal(t, "L", board[0].LawyerID)
		assert.Equal(t, "M", board[1].LawyerID)
	}
}
