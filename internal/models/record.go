package models

// Record is anything stored in a collection keyed by id.
type Record interface {
	GetID() string
}

// Filed is implemented by the entity families that carry an owner, progress
// notes and documents: transactions, court cases and letters.
type Filed[T any] interface {
	Record
	// Owner is the assigned lawyer id, empty when unassigned.
	Owner() string
	// Label is the human name used in notification messages.
	Label() string
	Notes() []ProgressNote
	WithNotes([]ProgressNote) T
	Docs() []Document
	WithDocs([]Document) T
}

func (u User) GetID() string             { return u.ID }
func (t Task) GetID() string             { return t.ID }
func (c Client) GetID() string           { return c.ID }
func (i Invoice) GetID() string          { return i.ID }
func (l CommunicationLog) GetID() string { return l.ID }
func (n AppNotification) GetID() string  { return n.ID }
func (e Expense) GetID() string          { return e.ID }

func (t Transaction) GetID() string                          { return t.ID }
func (t Transaction) Owner() string                          { return t.LawyerID }
func (t Transaction) Label() string                          { return t.FileName }
func (t Transaction) Notes() []ProgressNote                  { return t.ProgressNotes }
func (t Transaction) Docs() []Document                       { return t.Documents }
func (t Transaction) WithNotes(n []ProgressNote) Transaction { t.ProgressNotes = n; return t }
func (t Transaction) WithDocs(d []Document) Transaction      { t.Documents = d; return t }

func (c CourtCase) GetID() string                        { return c.ID }
func (c CourtCase) Owner() string                        { return c.LawyerID }
func (c CourtCase) Label() string                        { return c.FileName }
func (c CourtCase) Notes() []ProgressNote                { return c.ProgressNotes }
func (c CourtCase) Docs() []Document                     { return c.Documents }
func (c CourtCase) WithNotes(n []ProgressNote) CourtCase { c.ProgressNotes = n; return c }
func (c CourtCase) WithDocs(d []Document) CourtCase      { c.Documents = d; return c }

func (l Letter) GetID() string                     { return l.ID }
func (l Letter) Owner() string                     { return l.LawyerID }
func (l Letter) Label() string                     { return l.Subject }
func (l Letter) Notes() []ProgressNote             { return l.ProgressNotes }
func (l Letter) Docs() []Document                  { return l.Documents }
func (l Letter) WithNotes(n []ProgressNote) Letter { l.ProgressNotes = n; return l }
func (l Letter) WithDocs(d []Document) Letter      { l.Documents = d; return l }

// Normalized returns t with Balance and the legacy Amount re-derived.
func (t Transaction) Normalized() Transaction {
	t.BilledAmount, t.PaidAmount = clamp(t.BilledAmount), clamp(t.PaidAmount)
	t.Amount = t.BilledAmount
	t.Balance = t.BilledAmount - t.PaidAmount
	return t
}

// Normalized returns c with Balance re-derived.
func (c CourtCase) Normalized() CourtCase {
	c.Billed, c.Paid = clamp(c.Billed), clamp(c.Paid)
	c.Balance = c.Billed - c.Paid
	return c
}

// Normalized returns l with Balance re-derived.
func (l Letter) Normalized() Letter {
	l.Billed, l.Paid = clamp(l.Billed), clamp(l.Paid)
	l.Balance = l.Billed - l.Paid
	return l
}

// Normalized returns i with Balance and IsPaid re-derived.
func (i Invoice) Normalized() Invoice {
	i.AmountBilled, i.AmountPaid = clamp(i.AmountBilled), clamp(i.AmountPaid)
	i.Balance = i.AmountBilled - i.AmountPaid
	i.IsPaid = i.AmountPaid >= i.AmountBilled
	return i
}

func clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// Remote table names. They double as the allow-list of the table store.
const (
	TableUsers         = "users"
	TableTransactions  = "transactions"
	TableCourtCases    = "court_cases"
	TableLetters       = "letters"
	TableInvoices      = "invoices"
	TableClients       = "clients"
	TableTasks         = "tasks"
	TableCommLogs      = "comm_logs"
	TableNotifications = "notifications"
	TableExpenses      = "expenses"
)

// Tables lists every remote table in push order.
var Tables = []string{
	TableExpenses,
	TableClients,
	TableLetters,
	TableInvoices,
	TableTransactions,
	TableCourtCases,
	TableUsers,
	TableTasks,
	TableCommLogs,
	TableNotifications,
}

// KnownTable reports whether name is a remote table.
func KnownTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}
