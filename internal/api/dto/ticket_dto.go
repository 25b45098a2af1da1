package dto

import (
	"time"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// CreateTicketRequest payload. Any status sent by the client is ignored.
type CreateTicketRequest struct {
	Title            string `json:"title" validate:"required,max=255"`
	Description      string `json:"description"`
	Priority         string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedToUserID string `json:"assignedToUserId" validate:"required"`
}

// UpdateTicketRequest carries optional detail edits.
type UpdateTicketRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// UpdateStatusRequest payload for PUT /tickets/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AssignTicketRequest payload for PUT /tickets/:id/assign.
type AssignTicketRequest struct {
	AssignedToUserID string `json:"assignedToUserId" validate:"required"`
}

// SetTagsRequest payload for PUT /tickets/:id/tags.
type SetTagsRequest struct {
	TagIDs []string `json:"tagIds" validate:"omitempty,dive,required"`
}

// TicketResponse is the ticket as the API shows it.
type TicketResponse struct {
	ID               string                `json:"id"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Priority         domain.TicketPriority `json:"priority"`
	Status           domain.TicketStatus   `json:"status"`
	UserID           string                `json:"userId"`
	AssignedToUserID *string               `json:"assignedToUserId"`
	Creator          *domain.UserSummary   `json:"creator,omitempty"`
	AssignedUser     *domain.UserSummary   `json:"assignedUser"`
	Tags             []domain.Tag          `json:"tags,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Pages   int              `json:"pages"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Priority:         t.Priority,
		Status:           t.Status,
		UserID:           t.ReporterID,
		AssignedToUserID: t.AssigneeID,
		Creator:          t.Reporter,
		AssignedUser:     t.Assignee,
		Tags:             t.Tags,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// NewTicketListResponse maps a page of tickets.
func NewTicketListResponse(tickets []domain.Ticket, total int64, page, pages int) TicketListResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return TicketListResponse{Tickets: items, Total: total, Page: page, Pages: pages}
}
