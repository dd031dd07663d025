package practice

import (
	"context"

	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/client/store"
	"github.com/atinyakov/nomoslink/internal/models"
)

// Kind selects one of the filed entity families.
type Kind string

const (
	KindTransaction Kind = "transaction"
	KindCourtCase   Kind = "case"
	KindLetter      Kind = "letter"
)

// filedKeys cannot be changed through an Edit patch.
var filedKeys = []string{"id", "balance", "progressNotes", "documents"}

// ledger describes where a family keeps its billed/paid pair.
type ledger struct {
	fields       models.AmountFields
	billed, paid string
}

var (
	transactionLedger = ledger{fields: models.TransactionAmounts, billed: "billedAmount", paid: "paidAmount"}
	caseLedger        = ledger{fields: models.LedgerAmounts, billed: "billed", paid: "paid"}
)

// amounts resolves the post-merge pair. Keys missing from patch keep the
// stored value.
func (l ledger) amounts(patch Patch, curBilled, curPaid int64) (billed, paid int64, touched bool) {
	b, p, hasB, hasP := l.fields.Resolve(patch)
	billed, paid = curBilled, curPaid
	if hasB {
		billed = b
	}
	if hasP {
		paid = p
	}
	return billed, paid, hasB || hasP
}

// rewrite returns the alias keys to strip and the canonical pair to write.
func (l ledger) rewrite(billed, paid int64) (drop []string, set map[string]any) {
	for _, k := range l.fields.Keys() {
		if k != l.billed && k != l.paid {
			drop = append(drop, k)
		}
	}
	return drop, map[string]any{l.billed: billed, l.paid: paid}
}

// AddTransaction appends tx with its balance derived.
func (a *App) AddTransaction(tx models.Transaction) (models.Transaction, bool) {
	if tx.ID == "" {
		tx.ID = a.newID("TX-")
	}
	if tx.Status == "" {
		tx.Status = models.StatusPending
	}
	tx = tx.Normalized()
	return tx, addUnique(a, a.store.Transactions, tx)
}

// EditTransaction merges patch into the transaction and re-derives the
// balance. Status stays whatever the patch or the record says.
func (a *App) EditTransaction(id string, patch Patch) bool {
	return a.store.Transactions.Modify(id, func(cur models.Transaction) (models.Transaction, bool) {
		billed, paid, _ := transactionLedger.amounts(patch, cur.BilledAmount, cur.PaidAmount)
		drop, set := transactionLedger.rewrite(billed, paid)
		next, err := mergePatch(cur, patch, filedKeys, drop, set)
		if err != nil {
			a.logger.Warn("edit transaction: bad patch", zap.String("id", id), zap.Error(err))
			return cur, false
		}
		return next, true
	})
}

// DeleteTransaction removes the transaction.
func (a *App) DeleteTransaction(ctx context.Context, id string) bool {
	return a.remove(ctx, a.store.Transactions, models.TableTransactions, id)
}

// AddCourtCase appends c with its balance derived.
func (a *App) AddCourtCase(c models.CourtCase) (models.CourtCase, bool) {
	if c.ID == "" {
		c.ID = a.newID("CASE-")
	}
	if c.Status == "" {
		c.Status = models.StatusOngoing
	}
	c = c.Normalized()
	return c, addUnique(a, a.store.CourtCases, c)
}

// EditCourtCase merges patch into the case. When the patch carries an
// amount, status follows the balance: Completed once nothing is owed.
// Archived cases stay Completed; only their balance moves.
func (a *App) EditCourtCase(id string, patch Patch) bool {
	return a.store.CourtCases.Modify(id, func(cur models.CourtCase) (models.CourtCase, bool) {
		billed, paid, touched := caseLedger.amounts(patch, cur.Billed, cur.Paid)
		drop, set := caseLedger.rewrite(billed, paid)
		next, err := mergePatch(cur, patch, filedKeys, drop, set)
		if err != nil {
			a.logger.Warn("edit court case: bad patch", zap.String("id", id), zap.Error(err))
			return cur, false
		}
		if touched && !next.Archived {
			next = a.deriveCaseStatus(next.Normalized())
		}
		return next, true
	})
}

func (a *App) deriveCaseStatus(c models.CourtCase) models.CourtCase {
	if c.Balance <= 0 {
		if c.Status != models.StatusCompleted || c.CompletedDate == "" {
			c.CompletedDate = a.today()
		}
		c.Status = models.StatusCompleted
		return c
	}
	c.Status = models.StatusOngoing
	c.CompletedDate = ""
	return c
}

// DeleteCourtCase removes the case.
func (a *App) DeleteCourtCase(ctx context.Context, id string) bool {
	return a.remove(ctx, a.store.CourtCases, models.TableCourtCases, id)
}

// AddLetter appends l with its balance derived.
func (a *App) AddLetter(l models.Letter) (models.Letter, bool) {
	if l.ID == "" {
		l.ID = a.newID("LTR-")
	}
	if l.Status == "" {
		l.Status = models.StatusPending
	}
	if l.Date == "" {
		l.Date = a.today()
	}
	l = l.Normalized()
	return l, addUnique(a, a.store.Letters, l)
}

// EditLetter merges patch into the letter and re-derives the balance.
func (a *App) EditLetter(id string, patch Patch) bool {
	return a.store.Letters.Modify(id, func(cur models.Letter) (models.Letter, bool) {
		billed, paid, _ := caseLedger.amounts(patch, cur.Billed, cur.Paid)
		drop, set := caseLedger.rewrite(billed, paid)
		next, err := mergePatch(cur, patch, filedKeys, drop, set)
		if err != nil {
			a.logger.Warn("edit letter: bad patch", zap.String("id", id), zap.Error(err))
			return cur, false
		}
		return next, true
	})
}

// DeleteLetter removes the letter.
func (a *App) DeleteLetter(ctx context.Context, id string) bool {
	return a.remove(ctx, a.store.Letters, models.TableLetters, id)
}

// AttachDocument records an attachment reference on a filed entity.
func (a *App) AttachDocument(kind Kind, id, name, url string) (models.Document, bool) {
	doc := models.Document{ID: a.newID("DOC-"), Name: name, URL: url, Date: a.today()}
	var ok bool
	switch kind {
	case KindTransaction:
		ok = attach(a.store.Transactions, id, doc)
	case KindCourtCase:
		ok = attach(a.store.CourtCases, id, doc)
	case KindLetter:
		ok = attach(a.store.Letters, id, doc)
	default:
		a.logger.Warn("attach: unknown kind", zap.String("kind", string(kind)))
	}
	if !ok {
		return models.Document{}, false
	}
	return doc, true
}

func attach[T models.Filed[T]](c *store.Collection[T], id string, doc models.Document) bool {
	return c.Modify(id, func(cur T) (T, bool) {
		docs := append(append([]models.Document{}, cur.Docs()...), doc)
		return cur.WithDocs(docs), true
	})
}

// ArchiveTransaction hides a finished transaction from active lists.
func (a *App) ArchiveTransaction(id string) bool {
	return a.store.Transactions.Modify(id, func(cur models.Transaction) (models.Transaction, bool) {
		if cur.Archived {
			return cur, false
		}
		cur.Archived = true
		return cur, true
	})
}

// ArchiveCourtCase closes a case: archived, Completed and dated.
func (a *App) ArchiveCourtCase(id string) bool {
	return a.store.CourtCases.Modify(id, func(cur models.CourtCase) (models.CourtCase, bool) {
		if cur.Archived {
			return cur, false
		}
		cur.Archived = true
		cur.Status = models.StatusCompleted
		if cur.CompletedDate == "" {
			cur.CompletedDate = a.today()
		}
		return cur, true
	})
}
