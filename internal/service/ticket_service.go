package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/repository"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

const (
	defaultTicketPageSize = 10
	maxTicketPageSize     = 100
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store repository.Store
	effects
}

// TicketDependencies bundles collaborators for ticket and assignment services.
type TicketDependencies struct {
	Store      repository.Store
	Activity   ActivityRecorder
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Title            string
	Description      string
	Priority         string
	AssignedToUserID string
}

// UpdateTicketInput carries optional detail edits. Nil fields are left alone.
type UpdateTicketInput struct {
	Title       *string
	Description *string
	Priority    *string
}

// ListTicketsInput describes listing filters.
type ListTicketsInput struct {
	Page     int
	Limit    int
	Status   string
	Priority string
	Search   string
}

// TicketPage is one page of a role-scoped ticket listing.
type TicketPage struct {
	Tickets []domain.Ticket
	Total   int64
	Page    int
	Pages   int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:   deps.Store,
		effects: newEffects(deps.Activity, deps.Dispatcher, deps.Metrics, deps.Logger),
	}
}

// Create opens a pending ticket assigned to a user and writes the initial
// assignment entry in the same transaction.
func (s *TicketService) Create(ctx context.Context, identity domain.Identity, input CreateTicketInput) (*domain.Ticket, error) {
	if !auth.HasRole(identity, domain.RoleAssignee, domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("only assignees and admins can create tickets")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required")
	}
	priority, err := parsePriority(input.Priority)
	if err != nil {
		return nil, err
	}
	assignee, err := resolveAssignee(ctx, s.store, input.AssignedToUserID)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Priority:    priority,
		Status:      domain.TicketStatusPending,
		ReporterID:  identity.UserID,
		AssigneeID:  strPtr(assignee.ID),
	}
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		return tx.Assignments().Create(ctx, &domain.Assignment{
			TicketID:         ticket.ID,
			AssignedByUserID: identity.UserID,
			AssignedToUserID: assignee.ID,
			Action:           domain.AssignmentAssigned,
			Notes:            strPtr("Initial assignment"),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.assignmentWritten(domain.AssignmentAssigned)
	s.record(ctx, identity, ticket.ID, domain.ActivityCreated, map[string]any{
		"title":      ticket.Title,
		"priority":   string(ticket.Priority),
		"assigneeId": assignee.ID,
	}, fmt.Sprintf("Ticket created and assigned to %s", assignee.Name))
	s.emit(ctx, events.EventTicketCreated, ticket.ID, identity, events.TicketCreatedPayload{
		Title:      ticket.Title,
		Priority:   ticket.Priority,
		AssigneeID: ticket.AssigneeID,
	})
	return s.reload(ctx, ticket.ID)
}

// List returns the caller's role-scoped tickets, newest first.
func (s *TicketService) List(ctx context.Context, identity domain.Identity, input ListTicketsInput) (*TicketPage, error) {
	page, limit := normalizePage(input.Page, input.Limit, defaultTicketPageSize, maxTicketPageSize)
	filter := repository.TicketFilter{
		Page: repository.Page{Limit: limit, Offset: (page - 1) * limit},
	}

	switch identity.Role {
	case domain.RoleUser:
		filter.AssigneeID = strPtr(identity.UserID)
	case domain.RoleAssignee:
		filter.ReporterID = strPtr(identity.UserID)
	case domain.RoleAdmin:
	default:
		return nil, apperrors.NewForbidden("access denied")
	}

	if input.Status != "" {
		status := domain.TicketStatus(input.Status)
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status filter")
		}
		filter.Status = &status
	}
	if input.Priority != "" {
		priority := domain.TicketPriority(input.Priority)
		if !priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority filter")
		}
		filter.Priority = &priority
	}
	if term := strings.TrimSpace(input.Search); term != "" {
		filter.SearchTerm = &term
	}

	tickets, total, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketPage{Tickets: tickets, Total: total, Page: page, Pages: pageCount(total, limit)}, nil
}

// Get returns a ticket the caller may view.
func (s *TicketService) Get(ctx context.Context, identity domain.Identity, ticketID string) (*domain.Ticket, error) {
	return loadTicket(ctx, s.store, identity, ticketID, auth.TicketView)
}

// Update edits title, description or priority.
func (s *TicketService) Update(ctx context.Context, identity domain.Identity, ticketID string, input UpdateTicketInput) (*domain.Ticket, error) {
	var (
		changes = map[string]any{}
		fields  []string
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := lockTicket(ctx, tx, identity, ticketID, auth.TicketManage)
		if err != nil {
			return err
		}
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return apperrors.NewValidationError("title cannot be empty")
			}
			if title != ticket.Title {
				changes["title"] = map[string]any{"from": ticket.Title, "to": title}
				fields = append(fields, "title")
				ticket.Title = title
			}
		}
		if input.Description != nil {
			description := strings.TrimSpace(*input.Description)
			if description != ticket.Description {
				changes["description"] = map[string]any{"from": ticket.Description, "to": description}
				fields = append(fields, "description")
				ticket.Description = description
			}
		}
		if input.Priority != nil {
			priority, err := parsePriority(*input.Priority)
			if err != nil {
				return err
			}
			if priority != ticket.Priority {
				changes["priority"] = map[string]any{"from": string(ticket.Priority), "to": string(priority)}
				fields = append(fields, "priority")
				ticket.Priority = priority
			}
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Tickets().UpdateDetails(ctx, ticket)
	})
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}

	if len(fields) > 0 {
		s.record(ctx, identity, ticketID, domain.ActivityUpdated, changes, "Updated "+strings.Join(fields, ", "))
		s.emit(ctx, events.EventTicketUpdated, ticketID, identity, events.TicketUpdatedPayload{Fields: fields})
	}
	return s.reload(ctx, ticketID)
}

// UpdateStatus sets any settable status. There is no transition table.
func (s *TicketService) UpdateStatus(ctx context.Context, identity domain.Identity, ticketID, status string) (*domain.Ticket, error) {
	next := domain.TicketStatus(status)
	if !next.Settable() {
		return nil, apperrors.NewValidationError("invalid status. must be one of: pending, approved, rejected, completed")
	}

	var previous domain.TicketStatus
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := lockTicket(ctx, tx, identity, ticketID, auth.TicketManage)
		if err != nil {
			return err
		}
		previous = ticket.Status
		return tx.Tickets().UpdateStatus(ctx, ticket.ID, next)
	})
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}

	s.statusChanged(previous, next)
	s.record(ctx, identity, ticketID, domain.ActivityStatusChanged, map[string]any{
		"from": string(previous),
		"to":   string(next),
	}, "")
	s.emit(ctx, events.EventTicketStatusChanged, ticketID, identity, events.TicketStatusChangedPayload{
		OldStatus: previous,
		NewStatus: next,
	})
	return s.reload(ctx, ticketID)
}

// Revoke lets the assigned user hand a ticket back. The assignee reference is kept.
func (s *TicketService) Revoke(ctx context.Context, identity domain.Identity, ticketID string) (*domain.Ticket, error) {
	var (
		previous domain.TicketStatus
		assignee *string
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := lockTicket(ctx, tx, identity, ticketID, auth.TicketRevoke)
		if err != nil {
			return err
		}
		if !ticket.Status.Revocable() {
			return apperrors.NewValidationError(fmt.Sprintf("cannot revoke ticket with status: %s", ticket.Status))
		}
		previous, assignee = ticket.Status, ticket.AssigneeID
		if err := tx.Tickets().UpdateStatus(ctx, ticket.ID, domain.TicketStatusRevoked); err != nil {
			return err
		}
		return tx.Assignments().Create(ctx, &domain.Assignment{
			TicketID:         ticket.ID,
			AssignedByUserID: identity.UserID,
			AssignedToUserID: *ticket.AssigneeID,
			Action:           domain.AssignmentRevoked,
			Notes:            strPtr("Ticket revoked by user"),
		})
	})
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}

	s.assignmentWritten(domain.AssignmentRevoked)
	s.statusChanged(previous, domain.TicketStatusRevoked)
	s.record(ctx, identity, ticketID, domain.ActivityRevoked, map[string]any{
		"from": string(previous),
		"to":   string(domain.TicketStatusRevoked),
	}, "Ticket revoked by assigned user")
	s.emit(ctx, events.EventTicketRevoked, ticketID, identity, events.TicketRevokedPayload{
		AssigneeID: assignee,
	})
	return s.reload(ctx, ticketID)
}

// Withdraw is the owner or admin revocation path. It clears the assignee and
// writes a revoked entry when there was one.
func (s *TicketService) Withdraw(ctx context.Context, identity domain.Identity, ticketID string) (*domain.Ticket, error) {
	var (
		previous domain.TicketStatus
		former   *string
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := lockTicket(ctx, tx, identity, ticketID, auth.TicketManage)
		if err != nil {
			return err
		}
		if !ticket.Status.Revocable() {
			return apperrors.NewValidationError(fmt.Sprintf("cannot revoke ticket with status: %s", ticket.Status))
		}
		previous, former = ticket.Status, ticket.AssigneeID
		if err := tx.Tickets().UpdateStatus(ctx, ticket.ID, domain.TicketStatusRevoked); err != nil {
			return err
		}
		if former == nil {
			return nil
		}
		if err := tx.Tickets().UpdateAssignee(ctx, ticket.ID, nil); err != nil {
			return err
		}
		return tx.Assignments().Create(ctx, &domain.Assignment{
			TicketID:         ticket.ID,
			AssignedByUserID: identity.UserID,
			AssignedToUserID: *former,
			Action:           domain.AssignmentRevoked,
			Notes:            strPtr("Ticket withdrawn by owner"),
		})
	})
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}

	if former != nil {
		s.assignmentWritten(domain.AssignmentRevoked)
	}
	s.statusChanged(previous, domain.TicketStatusRevoked)
	s.record(ctx, identity, ticketID, domain.ActivityWithdrawn, map[string]any{
		"from":             string(previous),
		"to":               string(domain.TicketStatusRevoked),
		"formerAssigneeId": derefOr(former, ""),
	}, "Ticket withdrawn by owner")
	s.emit(ctx, events.EventTicketRevoked, ticketID, identity, events.TicketRevokedPayload{
		AssigneeID: former,
		Withdrawn:  true,
	})
	return s.reload(ctx, ticketID)
}

// SetTags replaces the ticket's tag set.
func (s *TicketService) SetTags(ctx context.Context, identity domain.Identity, ticketID string, tagIDs []string) (*domain.Ticket, error) {
	ticket, err := loadTicket(ctx, s.store, identity, ticketID, auth.TicketManage)
	if err != nil {
		return nil, err
	}
	for _, id := range tagIDs {
		if _, err := s.store.Tags().GetByID(ctx, id); err != nil {
			return nil, notFoundOr(err, "tag")
		}
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Tickets().ReplaceTags(ctx, ticket.ID, tagIDs)
	})
	if err != nil {
		return nil, notFoundOr(err, "tag")
	}

	s.record(ctx, identity, ticket.ID, domain.ActivityTagsUpdated, map[string]any{"tagIds": tagIDs}, "")
	s.emit(ctx, events.EventTicketUpdated, ticket.ID, identity, events.TicketUpdatedPayload{Fields: []string{"tags"}})
	return s.reload(ctx, ticket.ID)
}

// Delete removes the ticket; its ledgers cascade with it.
func (s *TicketService) Delete(ctx context.Context, identity domain.Identity, ticketID string) error {
	ticket, err := loadTicket(ctx, s.store, identity, ticketID, auth.TicketManage)
	if err != nil {
		return err
	}
	if err := s.store.Tickets().Delete(ctx, ticket.ID); err != nil {
		return notFoundOr(err, "ticket")
	}
	s.emit(ctx, events.EventTicketDeleted, ticket.ID, identity, nil)
	return nil
}

func (s *TicketService) reload(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	return ticket, nil
}

// resolveAssignee loads the target of an assignment. Only users can hold tickets.
func resolveAssignee(ctx context.Context, store repository.Store, userID string) (*domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewValidationError("assignedToUserId is required")
	}
	user, err := store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "assigned user")
	}
	if user.Role != domain.RoleUser {
		return nil, apperrors.NewValidationError("tickets can only be assigned to users with the user role")
	}
	return user, nil
}

func parsePriority(value string) (domain.TicketPriority, error) {
	if value == "" {
		return domain.TicketPriorityMedium, nil
	}
	priority := domain.TicketPriority(value)
	if !priority.Valid() {
		return "", apperrors.NewValidationError("priority must be one of: low, medium, high")
	}
	return priority, nil
}

func normalizePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func pageCount(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
