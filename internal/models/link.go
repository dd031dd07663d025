package models

import "fmt"

// RelatedType names the entity family a notification points at.
type RelatedType string

const (
	RelatedCase        RelatedType = "case"
	RelatedTransaction RelatedType = "transaction"
	RelatedLetter      RelatedType = "letter"
	RelatedTask        RelatedType = "task"
)

// Link is the (relatedType, relatedId) pair carried by a notification.
// The zero value means "no link".
type Link struct {
	Type RelatedType
	ID   string
}

// Route maps the link to a UI path. ok is false for unknown or empty types.
func (l Link) Route() (path string, ok bool) {
	switch l.Type {
	case RelatedCase:
		return fmt.Sprintf("/lawyer/cases/%s", l.ID), true
	case RelatedTransaction:
		return fmt.Sprintf("/lawyer/transactions/%s", l.ID), true
	case RelatedLetter:
		return fmt.Sprintf("/lawyer/letters/%s", l.ID), true
	case RelatedTask:
		return "/lawyer/tasks", true
	}
	return "", false
}
