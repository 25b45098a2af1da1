package service

import (
	"context"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/repository"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

const commentPreviewLength = 120

// CommentService manages ticket threads.
type CommentService struct {
	store repository.Store
	effects
}

// NewCommentService constructs the service.
func NewCommentService(deps TicketDependencies) *CommentService {
	return &CommentService{
		store:   deps.Store,
		effects: newEffects(deps.Activity, deps.Dispatcher, deps.Metrics, deps.Logger),
	}
}

// Add posts a comment on a ticket the caller may view.
func (s *CommentService) Add(ctx context.Context, identity domain.Identity, ticketID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body is required")
	}
	ticket, err := loadTicket(ctx, s.store, identity, ticketID, auth.TicketView)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{TicketID: ticket.ID, AuthorID: identity.UserID, Body: body}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, notFoundOr(err, "ticket")
	}

	preview := stringPreview(body, commentPreviewLength)
	s.record(ctx, identity, ticket.ID, domain.ActivityCommented, map[string]any{"commentId": comment.ID}, preview)
	s.emit(ctx, events.EventCommentAdded, ticket.ID, identity, events.CommentAddedPayload{
		CommentID:   comment.ID,
		BodyPreview: preview,
	})
	return s.reload(ctx, comment.ID)
}

// ListForTicket returns the thread, newest first.
func (s *CommentService) ListForTicket(ctx context.Context, identity domain.Identity, ticketID string) ([]domain.Comment, error) {
	if _, err := loadTicket(ctx, s.store, identity, ticketID, auth.TicketView); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// Edit replaces the body. Only the author or an admin may edit.
func (s *CommentService) Edit(ctx context.Context, identity domain.Identity, commentID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body is required")
	}
	comment, err := s.modifiable(ctx, identity, commentID)
	if err != nil {
		return nil, err
	}

	comment.Body = body
	if err := s.store.Comments().UpdateBody(ctx, comment); err != nil {
		return nil, notFoundOr(err, "comment")
	}
	s.record(ctx, identity, comment.TicketID, domain.ActivityCommentUpdated, map[string]any{"commentId": comment.ID}, "")
	return s.reload(ctx, comment.ID)
}

// Delete removes a comment. Only the author or an admin may delete.
func (s *CommentService) Delete(ctx context.Context, identity domain.Identity, commentID string) error {
	comment, err := s.modifiable(ctx, identity, commentID)
	if err != nil {
		return err
	}
	if err := s.store.Comments().Delete(ctx, comment.ID); err != nil {
		return notFoundOr(err, "comment")
	}
	s.record(ctx, identity, comment.TicketID, domain.ActivityCommentDeleted, map[string]any{"commentId": comment.ID}, "")
	return nil
}

func (s *CommentService) modifiable(ctx context.Context, identity domain.Identity, commentID string) (*domain.Comment, error) {
	comment, err := s.store.Comments().GetByID(ctx, commentID)
	if err != nil {
		return nil, notFoundOr(err, "comment")
	}
	if !auth.CanModifyComment(identity, comment) {
		return nil, apperrors.NewForbidden("you can only modify your own comments")
	}
	return comment, nil
}

func (s *CommentService) reload(ctx context.Context, commentID string) (*domain.Comment, error) {
	comment, err := s.store.Comments().GetByID(ctx, commentID)
	if err != nil {
		return nil, notFoundOr(err, "comment")
	}
	return comment, nil
}
