package dto

import (
	"time"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// CreateCommentRequest payload for POST /comments.
type CreateCommentRequest struct {
	TicketID string `json:"ticketId" validate:"required"`
	Body     string `json:"body" validate:"required,max=5000"`
}

// UpdateCommentRequest payload for PUT /comments/:id.
type UpdateCommentRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

// CommentResponse is a thread entry with its author.
type CommentResponse struct {
	ID        string              `json:"id"`
	TicketID  string              `json:"ticketId"`
	UserID    string              `json:"userId"`
	Body      string              `json:"body"`
	Author    *domain.UserSummary `json:"author,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		UserID:    c.AuthorID,
		Body:      c.Body,
		Author:    c.Author,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewCommentListResponse maps a thread.
func NewCommentListResponse(comments []domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentResponse(&comments[i]))
	}
	return out
}

// CreateTagRequest payload for POST /tags.
type CreateTagRequest struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

// MessageResponse acknowledges deletions.
type MessageResponse struct {
	Message string `json:"message"`
}
