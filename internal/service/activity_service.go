package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// ActivityRecorder appends display-only audit entries after a mutation committed.
type ActivityRecorder interface {
	Record(ctx context.Context, entry domain.ActivityLog)
}

// ActivityService records and reads the activity ledger.
type ActivityService struct {
	store  repository.Store
	logger *zap.Logger
}

// ActivityDependencies bundles collaborators for the activity service.
type ActivityDependencies struct {
	Store  repository.Store
	Logger *zap.Logger
}

// NewActivityService constructs the service.
func NewActivityService(deps ActivityDependencies) *ActivityService {
	return &ActivityService{store: deps.Store, logger: nopLogger(deps.Logger)}
}

// Record writes entry. Failures are logged and swallowed.
func (s *ActivityService) Record(ctx context.Context, entry domain.ActivityLog) {
	if err := s.store.Activities().Create(ctx, &entry); err != nil {
		s.logger.Warn("activity log write failed",
			zap.String("ticket_id", entry.TicketID),
			zap.String("user_id", entry.UserID),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

// ListForTicket returns the ticket's activity, newest first.
func (s *ActivityService) ListForTicket(ctx context.Context, identity domain.Identity, ticketID string) ([]domain.ActivityLog, error) {
	if _, err := loadTicket(ctx, s.store, identity, ticketID, auth.TicketView); err != nil {
		return nil, err
	}
	entries, err := s.store.Activities().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// ListForTicketAndUser narrows ListForTicket to one actor.
func (s *ActivityService) ListForTicketAndUser(ctx context.Context, identity domain.Identity, ticketID, userID string) ([]domain.ActivityLog, error) {
	if _, err := loadTicket(ctx, s.store, identity, ticketID, auth.TicketView); err != nil {
		return nil, err
	}
	entries, err := s.store.Activities().ListByTicketAndUser(ctx, ticketID, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}
