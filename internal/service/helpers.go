package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/repository"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// notFoundOr maps repository.ErrNotFound to a 404 naming resource and
// anything else to an internal error.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource)
	}
	return apperrors.MapError(err)
}

// loadTicket fetches a ticket and applies the policy for action.
func loadTicket(ctx context.Context, store repository.Store, identity domain.Identity, ticketID string, action auth.TicketAction) (*domain.Ticket, error) {
	ticket, err := store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if err := auth.AuthorizeTicket(identity, ticket, action); err != nil {
		return nil, err
	}
	return ticket, nil
}

// lockTicket is loadTicket for use inside WithinTx. The row stays locked
// until the transaction ends, so checks made on it hold for the write.
func lockTicket(ctx context.Context, tx repository.Store, identity domain.Identity, ticketID string, action auth.TicketAction) (*domain.Ticket, error) {
	ticket, err := tx.Tickets().GetForUpdate(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if err := auth.AuthorizeTicket(identity, ticket, action); err != nil {
		return nil, err
	}
	return ticket, nil
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	return string(runes[:max]) + "..."
}

func strPtr(s string) *string {
	return &s
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func nopLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
