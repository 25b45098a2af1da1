package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusApproved  TicketStatus = "approved"
	TicketStatusRejected  TicketStatus = "rejected"
	TicketStatusCompleted TicketStatus = "completed"
	TicketStatusRevoked   TicketStatus = "revoked"
)

// Valid reports whether s is one of the five lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusApproved, TicketStatusRejected, TicketStatusCompleted, TicketStatusRevoked:
		return true
	}
	return false
}

// Settable reports whether an owner may set s through the status endpoint.
// Revocation has dedicated paths.
func (s TicketStatus) Settable() bool {
	return s.Valid() && s != TicketStatusRevoked
}

// Revocable reports whether a ticket in status s can still be revoked.
func (s TicketStatus) Revocable() bool {
	return s != TicketStatusRevoked && s != TicketStatusCompleted
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for assigned work.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Priority    TicketPriority
	Status      TicketStatus
	ReporterID  string
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Populated by reads that join users and tags.
	Reporter *UserSummary
	Assignee *UserSummary
	Tags     []Tag
}

// IsReporter reports whether userID created the ticket.
func (t *Ticket) IsReporter(userID string) bool {
	return t.ReporterID == userID
}

// IsAssignee reports whether the ticket is currently assigned to userID.
func (t *Ticket) IsAssignee(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
