package practice

import (
	"slices"

	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/client/store"
	"github.com/atinyakov/nomoslink/internal/models"
)

// noteTarget binds a Kind to its collection and notification wording.
type noteTarget[T models.Filed[T]] struct {
	coll    *store.Collection[T]
	prefix  string
	related models.RelatedType
}

// AddProgress appends a note by the session user. The owner of the file,
// when set and not the author, gets one file notification.
func (a *App) AddProgress(kind Kind, id, message string) (models.ProgressNote, bool) {
	switch kind {
	case KindTransaction:
		return addNote(a, noteTarget[models.Transaction]{a.store.Transactions, "File Update: ", models.RelatedTransaction}, id, message)
	case KindCourtCase:
		return addNote(a, noteTarget[models.CourtCase]{a.store.CourtCases, "Case Update: ", models.RelatedCase}, id, message)
	case KindLetter:
		return addNote(a, noteTarget[models.Letter]{a.store.Letters, "Letter Update: ", models.RelatedLetter}, id, message)
	}
	a.logger.Warn("add progress: unknown kind", zap.String("kind", string(kind)))
	return models.ProgressNote{}, false
}

// EditProgress replaces the message of one note. Only its author may do
// so, and never an admin.
func (a *App) EditProgress(kind Kind, id, noteID, message string) bool {
	edit := func(n models.ProgressNote) (models.ProgressNote, bool) {
		if n.Message == message {
			return n, false
		}
		n.Message = message
		return n, true
	}
	switch kind {
	case KindTransaction:
		return changeNote(a, a.store.Transactions, id, noteID, edit)
	case KindCourtCase:
		return changeNote(a, a.store.CourtCases, id, noteID, edit)
	case KindLetter:
		return changeNote(a, a.store.Letters, id, noteID, edit)
	}
	return false
}

// DeleteProgress removes one note under the same rules as EditProgress.
func (a *App) DeleteProgress(kind Kind, id, noteID string) bool {
	switch kind {
	case KindTransaction:
		return changeNote(a, a.store.Transactions, id, noteID, nil)
	case KindCourtCase:
		return changeNote(a, a.store.CourtCases, id, noteID, nil)
	case KindLetter:
		return changeNote(a, a.store.Letters, id, noteID, nil)
	}
	return false
}

func addNote[T models.Filed[T]](a *App, t noteTarget[T], id, message string) (models.ProgressNote, bool) {
	actor, ok := a.actor("add progress")
	if !ok {
		return models.ProgressNote{}, false
	}
	note := models.ProgressNote{
		ID:         a.newID("NOTE-"),
		Message:    message,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		AuthorRole: actor.Role,
		Date:       a.stamp(),
	}

	var owner, label string
	ok = t.coll.Modify(id, func(cur T) (T, bool) {
		owner, label = cur.Owner(), cur.Label()
		notes := append(slices.Clone(cur.Notes()), note)
		return cur.WithNotes(notes), true
	})
	if !ok {
		a.logger.Debug("add progress: not found", zap.String("collection", t.coll.Name()), zap.String("id", id))
		return models.ProgressNote{}, false
	}

	if owner != "" && owner != actor.ID {
		a.notifier.Send(owner, t.prefix+label, models.NotificationFile, models.Link{Type: t.related, ID: id})
	}
	return note, true
}

// changeNote edits (fn != nil) or deletes (fn == nil) the note noteID of
// entity id on behalf of the session user.
func changeNote[T models.Filed[T]](a *App, c *store.Collection[T], id, noteID string,
	fn func(models.ProgressNote) (models.ProgressNote, bool)) bool {
	actor, ok := a.actor("change progress")
	if !ok {
		return false
	}
	if actor.Role == models.RoleAdmin {
		a.logger.Debug("change progress: admins cannot alter notes", zap.String("user", actor.ID))
		return false
	}

	return c.Modify(id, func(cur T) (T, bool) {
		notes := cur.Notes()
		i := slices.IndexFunc(notes, func(n models.ProgressNote) bool { return n.ID == noteID })
		if i < 0 || notes[i].AuthorID != actor.ID {
			return cur, false
		}
		notes = slices.Clone(notes)
		if fn == nil {
			return cur.WithNotes(slices.Delete(notes, i, i+1)), true
		}
		next, changed := fn(notes[i])
		if !changed {
			return cur, false
		}
		notes[i] = next
		return cur.WithNotes(notes), true
	})
}
