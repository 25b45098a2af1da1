package dto

import (
	"time"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// AssignmentResponse is one assignment ledger row.
type AssignmentResponse struct {
	ID                       string                  `json:"id"`
	TicketID                 string                  `json:"ticketId"`
	AssignedByUserID         string                  `json:"assignedByUserId"`
	AssignedToUserID         string                  `json:"assignedToUserId"`
	Action                   domain.AssignmentAction `json:"action"`
	PreviousAssignedToUserID *string                 `json:"previousAssignedToUserId"`
	Notes                    *string                 `json:"notes"`
	Ticket                   *domain.TicketSummary   `json:"ticket,omitempty"`
	AssignedBy               *domain.UserSummary     `json:"assignedBy,omitempty"`
	AssignedTo               *domain.UserSummary     `json:"assignedTo,omitempty"`
	CreatedAt                time.Time               `json:"createdAt"`
}

// AssignmentListResponse is one page of the ledger.
type AssignmentListResponse struct {
	Assignments []AssignmentResponse `json:"assignments"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Pages       int                  `json:"pages"`
}

// ActionCountResponse is a per-action ledger count.
type ActionCountResponse struct {
	Action domain.AssignmentAction `json:"action"`
	Count  int64                   `json:"count"`
}

// UserCountResponse is a per-user ledger count.
type UserCountResponse struct {
	User  domain.UserSummary `json:"user"`
	Count int64              `json:"count"`
}

// AssignmentStatsResponse is the admin overview.
type AssignmentStatsResponse struct {
	TotalAssignments    int64                 `json:"totalAssignments"`
	AssignmentsByAction []ActionCountResponse `json:"assignmentsByAction"`
	TopAssignees        []UserCountResponse   `json:"topAssignees"`
	TopAssignedUsers    []UserCountResponse   `json:"topAssignedUsers"`
}

// UserAssignmentsResponse is a user's ledger from both sides.
type UserAssignmentsResponse struct {
	User           domain.UserSummary   `json:"user"`
	AssignedByUser []AssignmentResponse `json:"assignedByUser"`
	AssignedToUser []AssignmentResponse `json:"assignedToUser"`
}

// ActivityResponse is one activity ledger entry.
type ActivityResponse struct {
	ID          string              `json:"id"`
	TicketID    string              `json:"ticketId"`
	UserID      string              `json:"userId"`
	Action      string              `json:"action"`
	Changes     map[string]any      `json:"changes"`
	Description *string             `json:"description"`
	User        *domain.UserSummary `json:"user,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// NewAssignmentResponse maps a ledger row.
func NewAssignmentResponse(a *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                       a.ID,
		TicketID:                 a.TicketID,
		AssignedByUserID:         a.AssignedByUserID,
		AssignedToUserID:         a.AssignedToUserID,
		Action:                   a.Action,
		PreviousAssignedToUserID: a.PreviousAssignedToUserID,
		Notes:                    a.Notes,
		Ticket:                   a.Ticket,
		AssignedBy:               a.AssignedBy,
		AssignedTo:               a.AssignedTo,
		CreatedAt:                a.CreatedAt,
	}
}

// NewAssignmentListResponse maps ledger rows.
func NewAssignmentListResponse(rows []domain.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, NewAssignmentResponse(&rows[i]))
	}
	return out
}

// NewAssignmentStatsResponse maps the ledger overview.
func NewAssignmentStatsResponse(s *domain.AssignmentStats) AssignmentStatsResponse {
	resp := AssignmentStatsResponse{
		TotalAssignments:    s.Total,
		AssignmentsByAction: make([]ActionCountResponse, 0, len(s.ByAction)),
		TopAssignees:        userCounts(s.TopAssigners),
		TopAssignedUsers:    userCounts(s.TopAssignedUsers),
	}
	for _, c := range s.ByAction {
		resp.AssignmentsByAction = append(resp.AssignmentsByAction, ActionCountResponse{Action: c.Action, Count: c.Count})
	}
	return resp
}

func userCounts(counts []domain.UserCount) []UserCountResponse {
	out := make([]UserCountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, UserCountResponse{User: c.User, Count: c.Count})
	}
	return out
}

// NewActivityListResponse maps activity entries.
func NewActivityListResponse(entries []domain.ActivityLog) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityResponse{
			ID:          e.ID,
			TicketID:    e.TicketID,
			UserID:      e.UserID,
			Action:      e.Action,
			Changes:     e.Changes,
			Description: e.Description,
			User:        e.User,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
