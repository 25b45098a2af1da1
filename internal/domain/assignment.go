package domain

import "time"

// AssignmentAction classifies an assignment ledger entry.
type AssignmentAction string

const (
	AssignmentAssigned   AssignmentAction = "assigned"
	AssignmentReassigned AssignmentAction = "reassigned"
	AssignmentRevoked    AssignmentAction = "revoked"
)

// Assignment is an immutable ledger entry describing who handed a ticket to whom.
type Assignment struct {
	ID                       string
	TicketID                 string
	AssignedByUserID         string
	AssignedToUserID         string
	Action                   AssignmentAction
	PreviousAssignedToUserID *string
	Notes                    *string
	CreatedAt                time.Time

	// Populated by list queries.
	Ticket     *TicketSummary
	AssignedBy *UserSummary
	AssignedTo *UserSummary
}

// TicketSummary is the ticket projection embedded in ledger reads.
type TicketSummary struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Status   TicketStatus   `json:"status"`
	Priority TicketPriority `json:"priority"`
}

// ActionCount aggregates ledger rows per action.
type ActionCount struct {
	Action AssignmentAction
	Count  int64
}

// UserCount aggregates ledger rows per user.
type UserCount struct {
	User  UserSummary
	Count int64
}

// AssignmentStats is the admin overview of the assignment ledger.
type AssignmentStats struct {
	Total            int64
	ByAction         []ActionCount
	TopAssigners     []UserCount
	TopAssignedUsers []UserCount
}
