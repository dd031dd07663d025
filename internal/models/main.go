// Package models defines the core data structures shared by the practice
// client and the remote table store.
package models

import "time"

// Role is the closed set of user roles.
type Role string

const (
	// RoleAdmin manages users and firm-wide settings.
	RoleAdmin Role = "admin"
	// RoleManager oversees files and staff.
	RoleManager Role = "manager"
	// RoleLawyer owns transactions, court cases and letters.
	RoleLawyer Role = "lawyer"
	// RoleClerk receives and completes tasks.
	RoleClerk Role = "clerk"
	// RoleAccountant handles invoices and expenses.
	RoleAccountant Role = "accountant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleLawyer, RoleClerk, RoleAccountant:
		return true
	}
	return false
}

// Status is the lifecycle state of a file, letter or task.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusOngoing   Status = "Ongoing"
	StatusCompleted Status = "Completed"
)

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is the login email address.
	Email string `json:"email"`
	// Role determines what the user may do.
	Role Role `json:"role"`
	// Password is an opaque credential compared by the identity layer.
	Password string `json:"password,omitempty"`
}

// ProgressNote is a timestamped, authored message attached to a file.
type ProgressNote struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	AuthorRole Role   `json:"authorRole"`
	// Date is human readable, see DisplayLayout.
	Date string `json:"date"`
}

// Document is an attachment reference.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Date string `json:"date"`
}

// Transaction is a conveyancing or advisory file with a billed/paid ledger.
type Transaction struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	// LawyerID is the owning lawyer; empty means unassigned.
	LawyerID string `json:"lawyerId,omitempty"`
	Type     string `json:"type"`
	Status   Status `json:"status"`
	// Amount is the legacy alias of BilledAmount and always mirrors it.
	Amount        int64          `json:"amount"`
	BilledAmount  int64          `json:"billedAmount"`
	PaidAmount    int64          `json:"paidAmount"`
	Balance       int64          `json:"balance"`
	Date          string         `json:"date,omitempty"`
	Archived      bool           `json:"archived,omitempty"`
	Documents     []Document     `json:"documents,omitempty"`
	ProgressNotes []ProgressNote `json:"progressNotes,omitempty"`
}

// CourtCase is a litigation file.
type CourtCase struct {
	ID            string         `json:"id"`
	FileName      string         `json:"fileName"`
	Details       string         `json:"details,omitempty"`
	Billed        int64          `json:"billed"`
	Paid          int64          `json:"paid"`
	Balance       int64          `json:"balance"`
	Status        Status         `json:"status"`
	NextCourtDate string         `json:"nextCourtDate,omitempty"`
	CompletedDate string         `json:"completedDate,omitempty"`
	LawyerID      string         `json:"lawyerId,omitempty"`
	Archived      bool           `json:"archived,omitempty"`
	Documents     []Document     `json:"documents,omitempty"`
	ProgressNotes []ProgressNote `json:"progressNotes,omitempty"`
}

// LetterType tells incoming and outgoing correspondence apart.
type LetterType string

const (
	LetterIncoming LetterType = "Incoming"
	LetterOutgoing LetterType = "Outgoing"
)

// Letter is a piece of correspondence handled by the firm.
type Letter struct {
	ID            string         `json:"id"`
	Subject       string         `json:"subject"`
	Type          LetterType     `json:"type"`
	LawyerID      string         `json:"lawyerId,omitempty"`
	Status        Status         `json:"status"`
	Date          string         `json:"date,omitempty"`
	Billed        int64          `json:"billed"`
	Paid          int64          `json:"paid"`
	Balance       int64          `json:"balance"`
	Documents     []Document     `json:"documents,omitempty"`
	ProgressNotes []ProgressNote `json:"progressNotes,omitempty"`
}

// Invoice is an independent ledger entry. RelatedFile is a free-text join
// key, not a foreign key.
type Invoice struct {
	ID           string `json:"id"`
	FileName     string `json:"fileName"`
	RelatedFile  string `json:"relatedFile"`
	AmountBilled int64  `json:"amountBilled"`
	AmountPaid   int64  `json:"amountPaid"`
	Balance      int64  `json:"balance"`
	IsPaid       bool   `json:"isPaid"`
	DateCreated  string `json:"dateCreated"`
	DueDate      string `json:"dueDate,omitempty"`
}

// ClientType distinguishes people from companies.
type ClientType string

const (
	ClientIndividual ClientType = "Individual"
	ClientCorporate  ClientType = "Corporate"
)

// Client is a customer of the firm.
type Client struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      ClientType `json:"type"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	TINNumber string     `json:"tinNumber,omitempty"`
	DateAdded string     `json:"dateAdded"`
}

// CommunicationLog is an immutable note tied to a client.
type CommunicationLog struct {
	ID         string `json:"id"`
	ClientID   string `json:"clientId"`
	Note       string `json:"note"`
	AuthorName string `json:"authorName"`
	Date       string `json:"date"`
}

// Task is an assignment from one user to another. Completed is terminal.
type Task struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	AssignedToID   string `json:"assignedToId"`
	AssignedToName string `json:"assignedToName"`
	AssignedByID   string `json:"assignedById"`
	AssignedByName string `json:"assignedByName"`
	Status         Status `json:"status"`
	// ClerkNote is only populated on completion.
	ClerkNote   string `json:"clerkNote,omitempty"`
	DateCreated string `json:"dateCreated"`
	Archived    bool   `json:"archived,omitempty"`
}

// NotificationType classifies an alert.
type NotificationType string

const (
	NotificationAlert NotificationType = "alert"
	NotificationTask  NotificationType = "task"
	NotificationFile  NotificationType = "file"
)

// AppNotification is a cross-user alert. Only Read ever changes after creation.
type AppNotification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	Type        NotificationType `json:"type"`
	Message     string           `json:"message"`
	Date        time.Time        `json:"date"`
	Read        bool             `json:"read"`
	RelatedID   string           `json:"relatedId,omitempty"`
	RelatedType RelatedType      `json:"relatedType,omitempty"`
}

// Link returns the deep-link pair of the notification.
func (n AppNotification) Link() Link {
	return Link{Type: n.RelatedType, ID: n.RelatedID}
}

// Expense is an outgoing payment recorded by the firm.
type Expense struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date"`
	RecordedBy  string `json:"recordedBy,omitempty"`
}

// Filter selects remote rows whose top-level Field equals Value.
type Filter struct {
	Field string
	Value string
}

// DisplayLayout is the human-readable timestamp format for notes and logs.
const DisplayLayout = "2006-01-02 15:04:05"

// DateLayout is used for date-only fields.
const DateLayout = "2006-01-02"
