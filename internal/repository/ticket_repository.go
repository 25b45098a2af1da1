package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// TicketFilter captures list scoping and search parameters.
type TicketFilter struct {
	ReporterID *string
	AssigneeID *string
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	SearchTerm *string
	Page       Page
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// UpdateDetails writes title, description and priority only.
	UpdateDetails(ctx context.Context, ticket *domain.Ticket) error
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error
	UpdateAssignee(ctx context.Context, id string, assigneeID *string) error
	Delete(ctx context.Context, id string) error
	// GetByID loads the ticket with reporter, assignee and tags populated.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate loads the ticket without tags and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	// List returns one page of tickets, newest first, and the unpaged total.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error)
	ReplaceTags(ctx context.Context, ticketID string, tagIDs []string) error
}

type ticketRepository struct {
	db DBTX
}

const ticketSelect = `
        SELECT t.id, t.title, t.description, t.priority, t.status, t.reporter_id, t.assignee_id,
               t.created_at, t.updated_at,
               r.name, r.email, r.role,
               a.name, a.email, a.role
        FROM tickets t
        JOIN users r ON r.id = t.reporter_id
        LEFT JOIN users a ON a.id = t.assignee_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, priority, status, reporter_id, assignee_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.ReporterID,
		ticket.AssigneeID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) UpdateDetails(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	return r.exec(ctx, `UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
}

func (r *ticketRepository) UpdateAssignee(ctx context.Context, id string, assigneeID *string) error {
	return r.exec(ctx, `UPDATE tickets SET assignee_id=$1, updated_at=NOW() WHERE id=$2`, assigneeID, id)
}

func (r *ticketRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, ticketSelect+` WHERE t.id=$1 FOR UPDATE OF t`, id))
	if err != nil {
		return nil, translate(err)
	}
	return ticket, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id))
	if err != nil {
		return nil, translate(err)
	}

	const tagsQuery = `
        SELECT g.id, g.name, g.created_at
        FROM ticket_tags tt
        JOIN tags g ON g.id = tt.tag_id
        WHERE tt.ticket_id=$1
        ORDER BY g.name ASC`
	rows, err := r.db.Query(ctx, tagsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ticket.Tags = []domain.Tag{}
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, err
		}
		ticket.Tags = append(ticket.Tags, tag)
	}
	return ticket, rows.Err()
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("t.reporter_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("t.assignee_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + escapeLike(strings.ToLower(strings.TrimSpace(*filter.SearchTerm))) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			`(LOWER(t.title) LIKE %[1]s ESCAPE '\' OR LOWER(t.description) LIKE %[1]s ESCAPE '\')`, placeholder))
	}
	where := strings.Join(clauses, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM tickets t WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize(10)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		ticketSelect, where, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, total, rows.Err()
}

func (r *ticketRepository) ReplaceTags(ctx context.Context, ticketID string, tagIDs []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM ticket_tags WHERE ticket_id=$1`, ticketID); err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	const query = `
        INSERT INTO ticket_tags (ticket_id, tag_id)
        SELECT $1, UNNEST($2::uuid[])
        ON CONFLICT DO NOTHING`
	_, err := r.db.Exec(ctx, query, ticketID, tagIDs)
	return translate(err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes term match literally inside a LIKE pattern.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket   domain.Ticket
		reporter domain.UserSummary
		assignee nullableSummary
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.ReporterID,
		&ticket.AssigneeID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&reporter.Name,
		&reporter.Email,
		&reporter.Role,
		&assignee.Name,
		&assignee.Email,
		&assignee.Role,
	); err != nil {
		return nil, err
	}
	reporter.ID = ticket.ReporterID
	ticket.Reporter = &reporter
	if ticket.AssigneeID != nil {
		ticket.Assignee = assignee.summary(*ticket.AssigneeID)
	}
	return &ticket, nil
}

// nullableSummary receives the columns of an outer-joined user.
type nullableSummary struct {
	Name  *string
	Email *string
	Role  *string
}

func (n nullableSummary) summary(id string) *domain.UserSummary {
	if n.Name == nil || n.Email == nil || n.Role == nil {
		return nil
	}
	role, err := domain.ParseRole(*n.Role)
	if err != nil {
		return nil
	}
	return &domain.UserSummary{ID: id, Name: *n.Name, Email: *n.Email, Role: role}
}
