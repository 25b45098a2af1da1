package repository

import (
	"context"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// ActivityRepository stores the ticket audit trail. Entries are append-only.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ActivityLog, error)
	ListByTicketAndUser(ctx context.Context, ticketID, userID string) ([]domain.ActivityLog, error)
}

type activityRepository struct {
	db DBTX
}

const activitySelect = `
        SELECT l.id, l.ticket_id, l.user_id, l.action, l.changes, l.description, l.created_at,
               u.name, u.email, u.role
        FROM activity_logs l
        JOIN users u ON u.id = l.user_id`

func (r *activityRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	const query = `
        INSERT INTO activity_logs (ticket_id, user_id, action, changes, description)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	var changes any
	if len(entry.Changes) > 0 {
		changes = entry.Changes
	}
	err := r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.UserID,
		entry.Action,
		changes,
		entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
	return translate(err)
}

func (r *activityRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ActivityLog, error) {
	return r.list(ctx, activitySelect+` WHERE l.ticket_id=$1 ORDER BY l.created_at DESC`, ticketID)
}

func (r *activityRepository) ListByTicketAndUser(ctx context.Context, ticketID, userID string) ([]domain.ActivityLog, error) {
	return r.list(ctx, activitySelect+` WHERE l.ticket_id=$1 AND l.user_id=$2 ORDER BY l.created_at DESC`, ticketID, userID)
}

func (r *activityRepository) list(ctx context.Context, query string, args ...any) ([]domain.ActivityLog, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ActivityLog{}
	for rows.Next() {
		var (
			entry domain.ActivityLog
			actor domain.UserSummary
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.UserID,
			&entry.Action,
			&entry.Changes,
			&entry.Description,
			&entry.CreatedAt,
			&actor.Name,
			&actor.Email,
			&actor.Role,
		); err != nil {
			return nil, err
		}
		actor.ID = entry.UserID
		entry.User = &actor
		result = append(result, entry)
	}
	return result, rows.Err()
}
