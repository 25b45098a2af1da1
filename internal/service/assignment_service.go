package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/repository"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

const (
	defaultAssignmentPageSize = 50
	maxAssignmentPageSize     = 200
	statsTopN                 = 10
)

// AssignmentService handles reassignment and reads the assignment ledger.
type AssignmentService struct {
	store repository.Store
	effects
}

// ListAssignmentsInput describes the admin ledger filters.
type ListAssignmentsInput struct {
	TicketID   string
	AssignedBy string
	AssignedTo string
	Page       int
	Limit      int
}

// AssignmentPage is one page of the ledger.
type AssignmentPage struct {
	Assignments []domain.Assignment
	Total       int64
	Page        int
	Pages       int
}

// UserAssignments is a user's ledger from both sides.
type UserAssignments struct {
	User           domain.UserSummary
	AssignedByUser []domain.Assignment
	AssignedToUser []domain.Assignment
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps TicketDependencies) *AssignmentService {
	return &AssignmentService{
		store:   deps.Store,
		effects: newEffects(deps.Activity, deps.Dispatcher, deps.Metrics, deps.Logger),
	}
}

// Reassign moves the ticket to another user and writes exactly one
// reassigned entry in the same transaction.
func (s *AssignmentService) Reassign(ctx context.Context, identity domain.Identity, ticketID, assignedToUserID string) (*domain.Ticket, error) {
	var (
		previous *string
		assignee *domain.User
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := lockTicket(ctx, tx, identity, ticketID, auth.TicketManage)
		if err != nil {
			return err
		}
		if assignee, err = resolveAssignee(ctx, tx, assignedToUserID); err != nil {
			return err
		}
		previous = ticket.AssigneeID
		if err := tx.Tickets().UpdateAssignee(ctx, ticket.ID, &assignee.ID); err != nil {
			return err
		}
		return tx.Assignments().Create(ctx, &domain.Assignment{
			TicketID:                 ticket.ID,
			AssignedByUserID:         identity.UserID,
			AssignedToUserID:         assignee.ID,
			Action:                   domain.AssignmentReassigned,
			PreviousAssignedToUserID: previous,
			Notes:                    strPtr(fmt.Sprintf("Reassigned from user %s", derefOr(previous, "none"))),
		})
	})
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}

	s.assignmentWritten(domain.AssignmentReassigned)
	s.record(ctx, identity, ticketID, domain.ActivityReassigned, map[string]any{
		"from": derefOr(previous, ""),
		"to":   assignee.ID,
	}, fmt.Sprintf("Ticket reassigned to %s", assignee.Name))
	s.emit(ctx, events.EventTicketReassigned, ticketID, identity, events.TicketReassignedPayload{
		PreviousAssigneeID: previous,
		NewAssigneeID:      assignee.ID,
	})

	updated, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	return updated, nil
}

// List returns the filtered ledger, newest first. Admin only.
func (s *AssignmentService) List(ctx context.Context, identity domain.Identity, input ListAssignmentsInput) (*AssignmentPage, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	page, limit := normalizePage(input.Page, input.Limit, defaultAssignmentPageSize, maxAssignmentPageSize)
	filter := repository.AssignmentFilter{
		Page: repository.Page{Limit: limit, Offset: (page - 1) * limit},
	}
	if input.TicketID != "" {
		filter.TicketID = strPtr(input.TicketID)
	}
	if input.AssignedBy != "" {
		filter.AssignedBy = strPtr(input.AssignedBy)
	}
	if input.AssignedTo != "" {
		filter.AssignedTo = strPtr(input.AssignedTo)
	}

	rows, total, err := s.store.Assignments().List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &AssignmentPage{Assignments: rows, Total: total, Page: page, Pages: pageCount(total, limit)}, nil
}

// ListByTicket returns a ticket's ledger for anyone who may view the ticket.
func (s *AssignmentService) ListByTicket(ctx context.Context, identity domain.Identity, ticketID string) ([]domain.Assignment, error) {
	if _, err := loadTicket(ctx, s.store, identity, ticketID, auth.TicketView); err != nil {
		return nil, err
	}
	rows, err := s.store.Assignments().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rows, nil
}

// Stats summarizes the ledger. Admin only.
func (s *AssignmentService) Stats(ctx context.Context, identity domain.Identity) (*domain.AssignmentStats, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	stats, err := s.store.Assignments().Stats(ctx, statsTopN)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

// ForUser returns what a user assigned and what was assigned to them. Admin only.
func (s *AssignmentService) ForUser(ctx context.Context, identity domain.Identity, userID string) (*UserAssignments, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	by, err := s.store.Assignments().ListByAssigner(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	to, err := s.store.Assignments().ListByAssignee(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &UserAssignments{User: user.Summary(), AssignedByUser: by, AssignedToUser: to}, nil
}

func requireAdmin(identity domain.Identity) error {
	if identity.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("access denied. required role(s): admin")
	}
	return nil
}
