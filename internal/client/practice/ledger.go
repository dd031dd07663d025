package practice

import (
	"context"

	"github.com/atinyakov/nomoslink/internal/models"
)

// AddInvoice appends inv with balance and paid state derived.
func (a *App) AddInvoice(inv models.Invoice) (models.Invoice, bool) {
	if inv.ID == "" {
		inv.ID = a.newID("INV-")
	}
	if inv.DateCreated == "" {
		inv.DateCreated = a.today()
	}
	inv = inv.Normalized()
	return inv, addUnique(a, a.store.Invoices, inv)
}

// UpdateInvoice replaces the stored invoice with the same id.
func (a *App) UpdateInvoice(inv models.Invoice) bool {
	return a.store.Invoices.Modify(inv.ID, func(models.Invoice) (models.Invoice, bool) {
		return inv, true
	})
}

// RecordPayment adds amount to what was paid on an invoice.
func (a *App) RecordPayment(id string, amount any) bool {
	paid := models.Coerce(amount)
	if paid == 0 {
		return false
	}
	return a.store.Invoices.Modify(id, func(cur models.Invoice) (models.Invoice, bool) {
		cur.AmountPaid += paid
		return cur, true
	})
}

// DeleteInvoice removes the invoice.
func (a *App) DeleteInvoice(ctx context.Context, id string) bool {
	return a.remove(ctx, a.store.Invoices, models.TableInvoices, id)
}

// AddClient appends c.
func (a *App) AddClient(c models.Client) (models.Client, bool) {
	if c.ID == "" {
		c.ID = a.newID("CL-")
	}
	if c.DateAdded == "" {
		c.DateAdded = a.today()
	}
	return c, addUnique(a, a.store.Clients, c)
}

// UpdateClient replaces the stored client with the same id.
func (a *App) UpdateClient(c models.Client) bool {
	return a.store.Clients.Modify(c.ID, func(models.Client) (models.Client, bool) {
		return c, true
	})
}

// DeleteClient removes the client. Its communication logs stay.
func (a *App) DeleteClient(ctx context.Context, id string) bool {
	return a.remove(ctx, a.store.Clients, models.TableClients, id)
}

// AddCommLog appends an immutable note to a client, stamped with the
// session user's name.
func (a *App) AddCommLog(clientID, note string) (models.CommunicationLog, bool) {
	actor, ok := a.actor("add comm log")
	if !ok {
		return models.CommunicationLog{}, false
	}
	if _, exists := a.store.Clients.Get(clientID); !exists {
		return models.CommunicationLog{}, false
	}
	l := models.CommunicationLog{
		ID:         a.newID("LOG-"),
		ClientID:   clientID,
		Note:       note,
		AuthorName: actor.Name,
		Date:       a.stamp(),
	}
	return l, addUnique(a, a.store.CommLogs, l)
}

// CommLogs returns the logs of one client in insertion order.
func (a *App) CommLogs(clientID string) []models.CommunicationLog {
	var out []models.CommunicationLog
	for _, l := range a.store.CommLogs.All() {
		if l.ClientID == clientID {
			out = append(out, l)
		}
	}
	return out
}

// AddExpense records an outgoing payment. amount is coerced.
func (a *App) AddExpense(description, category string, amount any) (models.Expense, bool) {
	e := models.Expense{
		ID:          a.newID("EXP-"),
		Description: description,
		Category:    category,
		Amount:      models.Coerce(amount),
		Date:        a.today(),
	}
	if u, ok := a.store.Session(); ok {
		e.RecordedBy = u.Name
	}
	return e, addUnique(a, a.store.Expenses, e)
}

// DeleteExpense removes the expense.
func (a *App) DeleteExpense(ctx context.Context, id string) bool {
	return a.remove(ctx, a.store.Expenses, models.TableExpenses, id)
}
