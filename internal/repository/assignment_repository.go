package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// AssignmentFilter narrows the admin ledger listing.
type AssignmentFilter struct {
	TicketID   *string
	AssignedBy *string
	AssignedTo *string
	Page       Page
}

// AssignmentRepository stores the append-only assignment ledger.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) error
	// List returns one page, newest first, and the unpaged total.
	List(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, int64, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error)
	ListByAssigner(ctx context.Context, userID string) ([]domain.Assignment, error)
	ListByAssignee(ctx context.Context, userID string) ([]domain.Assignment, error)
	Stats(ctx context.Context, top int) (*domain.AssignmentStats, error)
}

type assignmentRepository struct {
	db DBTX
}

const assignmentSelect = `
        SELECT s.id, s.ticket_id, s.assigned_by_user_id, s.assigned_to_user_id, s.action,
               s.previous_assigned_to_user_id, s.notes, s.created_at,
               t.title, t.status, t.priority,
               b.name, b.email, b.role,
               u.name, u.email, u.role
        FROM assignments s
        JOIN tickets t ON t.id = s.ticket_id
        JOIN users b ON b.id = s.assigned_by_user_id
        JOIN users u ON u.id = s.assigned_to_user_id`

func (r *assignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	const query = `
        INSERT INTO assignments (ticket_id, assigned_by_user_id, assigned_to_user_id, action, previous_assigned_to_user_id, notes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		assignment.TicketID,
		assignment.AssignedByUserID,
		assignment.AssignedToUserID,
		assignment.Action,
		assignment.PreviousAssignedToUserID,
		assignment.Notes,
	).Scan(&assignment.ID, &assignment.CreatedAt)
	return translate(err)
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TicketID != nil {
		args = append(args, *filter.TicketID)
		clauses = append(clauses, fmt.Sprintf("s.ticket_id=$%d", len(args)))
	}
	if filter.AssignedBy != nil {
		args = append(args, *filter.AssignedBy)
		clauses = append(clauses, fmt.Sprintf("s.assigned_by_user_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("s.assigned_to_user_id=$%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM assignments s WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize(50)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY s.created_at DESC LIMIT %d OFFSET %d`,
		assignmentSelect, where, page.Limit, page.Offset)
	result, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *assignmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error) {
	return r.list(ctx, assignmentSelect+` WHERE s.ticket_id=$1 ORDER BY s.created_at DESC`, ticketID)
}

func (r *assignmentRepository) ListByAssigner(ctx context.Context, userID string) ([]domain.Assignment, error) {
	return r.list(ctx, assignmentSelect+` WHERE s.assigned_by_user_id=$1 ORDER BY s.created_at DESC`, userID)
}

func (r *assignmentRepository) ListByAssignee(ctx context.Context, userID string) ([]domain.Assignment, error) {
	return r.list(ctx, assignmentSelect+` WHERE s.assigned_to_user_id=$1 ORDER BY s.created_at DESC`, userID)
}

func (r *assignmentRepository) Stats(ctx context.Context, top int) (*domain.AssignmentStats, error) {
	stats := &domain.AssignmentStats{}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM assignments`).Scan(&stats.Total); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT action, COUNT(*) FROM assignments GROUP BY action ORDER BY action`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var ac domain.ActionCount
		if err := rows.Scan(&ac.Action, &ac.Count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByAction = append(stats.ByAction, ac)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.TopAssigners, err = r.topUsers(ctx, "assigned_by_user_id", top); err != nil {
		return nil, err
	}
	if stats.TopAssignedUsers, err = r.topUsers(ctx, "assigned_to_user_id", top); err != nil {
		return nil, err
	}
	return stats, nil
}

// topUsers ranks users by ledger rows in column. column is never caller input.
func (r *assignmentRepository) topUsers(ctx context.Context, column string, limit int) ([]domain.UserCount, error) {
	query := fmt.Sprintf(`
        SELECT u.id, u.name, u.email, u.role, COUNT(s.id) AS n
        FROM assignments s
        JOIN users u ON u.id = s.%s
        GROUP BY u.id, u.name, u.email, u.role
        ORDER BY n DESC, u.name ASC
        LIMIT $1`, column)
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.UserCount{}
	for rows.Next() {
		var uc domain.UserCount
		if err := rows.Scan(&uc.User.ID, &uc.User.Name, &uc.User.Email, &uc.User.Role, &uc.Count); err != nil {
			return nil, err
		}
		result = append(result, uc)
	}
	return result, rows.Err()
}

func (r *assignmentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Assignment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Assignment{}
	for rows.Next() {
		var (
			a      domain.Assignment
			ticket domain.TicketSummary
			by     domain.UserSummary
			to     domain.UserSummary
		)
		if err := rows.Scan(
			&a.ID,
			&a.TicketID,
			&a.AssignedByUserID,
			&a.AssignedToUserID,
			&a.Action,
			&a.PreviousAssignedToUserID,
			&a.Notes,
			&a.CreatedAt,
			&ticket.Title,
			&ticket.Status,
			&ticket.Priority,
			&by.Name,
			&by.Email,
			&by.Role,
			&to.Name,
			&to.Email,
			&to.Role,
		); err != nil {
			return nil, err
		}
		ticket.ID = a.TicketID
		by.ID = a.AssignedByUserID
		to.ID = a.AssignedToUserID
		a.Ticket = &ticket
		a.AssignedBy = &by
		a.AssignedTo = &to
		result = append(result, a)
	}
	return result, rows.Err()
}
