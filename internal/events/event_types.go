package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketReassigned    EventType = "ticket_reassigned"
	EventTicketRevoked       EventType = "ticket_revoked"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventCommentAdded        EventType = "comment_added"
)

// AllEventTypes lists every type services publish.
func AllEventTypes() []EventType {
	return []EventType{
		EventTicketCreated,
		EventTicketUpdated,
		EventTicketStatusChanged,
		EventTicketReassigned,
		EventTicketRevoked,
		EventTicketDeleted,
		EventCommentAdded,
	}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// ActorFrom builds an Actor from the authenticated caller.
func ActorFrom(identity domain.Identity) Actor {
	return Actor{UserID: identity.UserID, Role: identity.Role.String()}
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticketId"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, ticketID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title      string                `json:"title"`
	Priority   domain.TicketPriority `json:"priority"`
	AssigneeID *string               `json:"assigneeId,omitempty"`
}

// TicketUpdatedPayload lists the fields that changed.
type TicketUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"oldStatus"`
	NewStatus domain.TicketStatus `json:"newStatus"`
}

// TicketReassignedPayload payload.
type TicketReassignedPayload struct {
	PreviousAssigneeID *string `json:"previousAssigneeId,omitempty"`
	NewAssigneeID      string  `json:"newAssigneeId"`
}

// TicketRevokedPayload payload. Withdrawn is set when the owner revoked.
type TicketRevokedPayload struct {
	AssigneeID *string `json:"assigneeId,omitempty"`
	Withdrawn  bool    `json:"withdrawn"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"commentId"`
	BodyPreview string `json:"bodyPreview"`
}
