// Package insight derives read-only views from store data: badge labels
// for files and per-lawyer performance figures.
package insight

import (
	"time"

	"github.com/atinyakov/nomoslink/internal/models"
)

// Label is a badge shown next to a file.
type Label string

const (
	LabelPaid      Label = "PAID"
	LabelUnpaid    Label = "UNPAID"
	LabelOverdue   Label = "OVERDUE"
	LabelUpcoming  Label = "UPCOMING"
	LabelNoUpdates Label = "NO UPDATES"
)

// Subject is the part of a file the labels look at.
type Subject struct {
	Billed, Paid int64
	// NextDate is a DateLayout date; empty or unparsable means none.
	NextDate string
	Notes    int
}

// TransactionSubject adapts a transaction. Transactions have no next date.
func TransactionSubject(t models.Transaction) Subject {
	return Subject{Billed: t.BilledAmount, Paid: t.PaidAmount, Notes: len(t.ProgressNotes)}
}

// CourtCaseSubject adapts a court case.
func CourtCaseSubject(c models.CourtCase) Subject {
	return Subject{Billed: c.Billed, Paid: c.Paid, NextDate: c.NextCourtDate, Notes: len(c.ProgressNotes)}
}

// Labels returns the badges for s as of now, in display order. Payment
// labels only appear once both amounts are nonzero.
func Labels(s Subject, now time.Time) []Label {
	var out []Label
	if s.Billed > 0 && s.Paid > 0 {
		if s.Paid >= s.Billed {
			out = append(out, LabelPaid)
		} else {
			out = append(out, LabelUnpaid)
		}
	}
	if s.NextDate != "" {
		if next, err := time.ParseInLocation(models.DateLayout, s.NextDate, now.Location()); err == nil {
			if next.Before(now) {
				out = append(out, LabelOverdue)
			} else {
				out = append(out, LabelUpcoming)
			}
		}
	}
	if s.Notes == 0 {
		out = append(out, LabelNoUpdates)
	}
	return out
}
