package insight

import (
	"math"

	"github.com/atinyakov/nomoslink/internal/models"
)

// Workload counts the files assigned to a lawyer.
type Workload struct {
	Transactions int `json:"transactions"`
	Cases        int `json:"cases"`
	Letters      int `json:"letters"`
}

// Finance sums the lawyer's transaction ledgers.
type Finance struct {
	Billed  int64 `json:"billed"`
	Paid    int64 `json:"paid"`
	Balance int64 `json:"balance"`
	// CollectionRate is paid/billed as a rounded percentage.
	CollectionRate int `json:"collectionRate"`
}

// Productivity scores activity: one point per note, two per completed case.
type Productivity struct {
	Notes          int `json:"notes"`
	CompletedCases int `json:"completedCases"`
	Score          int `json:"score"`
}

// Metrics is the performance card of one lawyer.
type Metrics struct {
	LawyerID     string       `json:"lawyerId"`
	Workload     Workload     `json:"workload"`
	Finance      Finance      `json:"finance"`
	Productivity Productivity `json:"productivity"`
}

// LawyerMetrics computes the card for lawyer over the given collections.
func LawyerMetrics(lawyer models.User, txs []models.Transaction, cases []models.CourtCase, letters []models.Letter) Metrics {
	m := Metrics{LawyerID: lawyer.ID}

	for _, t := range txs {
		if t.LawyerID != lawyer.ID {
			continue
		}
		m.Workload.Transactions++
		m.Finance.Billed += t.BilledAmount
		m.Finance.Paid += t.PaidAmount
		m.Productivity.Notes += len(t.ProgressNotes)
	}
	for _, c := range cases {
		if c.LawyerID != lawyer.ID {
			continue
		}
		m.Workload.Cases++
		m.Productivity.Notes += len(c.ProgressNotes)
		if c.Status == models.StatusCompleted {
			m.Productivity.CompletedCases++
		}
	}
	for _, l := range letters {
		if l.LawyerID == lawyer.ID {
			m.Workload.Letters++
		}
	}

	m.Finance.Balance = m.Finance.Billed - m.Finance.Paid
	if m.Finance.Billed > 0 {
		m.Finance.CollectionRate = int(math.Round(float64(m.Finance.Paid) / float64(m.Finance.Billed) * 100))
	}
	m.Productivity.Score = m.Productivity.Notes + 2*m.Productivity.CompletedCases
	return m
}

// Leaderboard computes metrics for every non-admin user, ordered as given.
func Leaderboard(users []models.User, txs []models.Transaction, cases []models.CourtCase, letters []models.Letter) []Metrics {
	var out []Metrics
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			continue
		}
		out = append(out, LawyerMetrics(u, txs, cases, letters))
	}
	return out
}
