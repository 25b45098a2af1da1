package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	defer r.s.lock()()
	db := r.s.db()
	if _, ok := db.users[ticket.ReporterID]; !ok {
		return repository.ErrNotFound
	}
	if ticket.AssigneeID != nil {
		if _, ok := db.users[*ticket.AssigneeID]; !ok {
			return repository.ErrNotFound
		}
	}
	now := r.s.now()
	ticket.ID = newID()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	db.tickets[ticket.ID] = stripTicket(*ticket)
	db.ticketOrder = append(db.ticketOrder, ticket.ID)
	return nil
}

func (r ticketRepo) UpdateDetails(_ context.Context, ticket *domain.Ticket) error {
	return r.modify(ticket.ID, func(stored *domain.Ticket) {
		stored.Title = ticket.Title
		stored.Description = ticket.Description
		stored.Priority = ticket.Priority
		ticket.UpdatedAt = r.s.now()
		stored.UpdatedAt = ticket.UpdatedAt
	})
}

func (r ticketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) error {
	return r.modify(id, func(stored *domain.Ticket) {
		stored.Status = status
		stored.UpdatedAt = r.s.now()
	})
}

func (r ticketRepo) UpdateAssignee(_ context.Context, id string, assigneeID *string) error {
	defer r.s.lock()()
	if assigneeID != nil {
		if _, ok := r.s.db().users[*assigneeID]; !ok {
			return repository.ErrNotFound
		}
	}
	return r.modifyLocked(id, func(stored *domain.Ticket) {
		stored.AssigneeID = copyString(assigneeID)
		stored.UpdatedAt = r.s.now()
	})
}

func (r ticketRepo) modify(id string, fn func(*domain.Ticket)) error {
	defer r.s.lock()()
	return r.modifyLocked(id, fn)
}

func (r ticketRepo) modifyLocked(id string, fn func(*domain.Ticket)) error {
	db := r.s.db()
	stored, ok := db.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&stored)
	db.tickets[id] = stored
	return nil
}

func (r ticketRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	db := r.s.db()
	if _, ok := db.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(db.tickets, id)
	delete(db.ticketTags, id)
	db.ticketOrder = removeString(db.ticketOrder, id)
	for cid, c := range db.comments {
		if c.TicketID == id {
			delete(db.comments, cid)
			db.commentOrder = removeString(db.commentOrder, cid)
		}
	}
	activities := db.activities[:0:0]
	for _, a := range db.activities {
		if a.TicketID != id {
			activities = append(activities, a)
		}
	}
	db.activities = activities
	assignments := db.assignments[:0:0]
	for _, a := range db.assignments {
		if a.TicketID != id {
			assignments = append(assignments, a)
		}
	}
	db.assignments = assignments
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	defer r.s.lock()()
	stored, ok := r.s.db().tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket := r.populate(stored)
	ticket.Tags = []domain.Tag{}
	for _, tagID := range r.s.db().ticketTags[id] {
		if tag, ok := r.s.db().tags[tagID]; ok {
			ticket.Tags = append(ticket.Tags, tag)
		}
	}
	sort.Slice(ticket.Tags, func(i, j int) bool { return ticket.Tags[i].Name < ticket.Tags[j].Name })
	return &ticket, nil
}

// GetForUpdate needs no row lock here: transactions hold the store mutex.
func (r ticketRepo) GetForUpdate(_ context.Context, id string) (*domain.Ticket, error) {
	defer r.s.lock()()
	stored, ok := r.s.db().tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket := r.populate(stored)
	return &ticket, nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int64, error) {
	defer r.s.lock()()
	db := r.s.db()

	search := ""
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}

	matched := []domain.Ticket{}
	for i := len(db.ticketOrder) - 1; i >= 0; i-- {
		t := db.tickets[db.ticketOrder[i]]
		if filter.ReporterID != nil && t.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.AssigneeID != nil && !t.IsAssignee(*filter.AssigneeID) {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		matched = append(matched, r.populate(t))
	}
	return paginate(matched, filter.Page, 10), int64(len(matched)), nil
}

func (r ticketRepo) ReplaceTags(_ context.Context, ticketID string, tagIDs []string) error {
	defer r.s.lock()()
	db := r.s.db()
	if _, ok := db.tickets[ticketID]; !ok {
		return repository.ErrNotFound
	}
	seen := make(map[string]bool, len(tagIDs))
	ids := []string{}
	for _, id := range tagIDs {
		if _, ok := db.tags[id]; !ok {
			return repository.ErrNotFound
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	db.ticketTags[ticketID] = ids
	return nil
}

func (r ticketRepo) populate(t domain.Ticket) domain.Ticket {
	t.Reporter = r.s.summary(t.ReporterID)
	if t.AssigneeID != nil {
		t.Assignee = r.s.summary(*t.AssigneeID)
	}
	return t
}

func stripTicket(t domain.Ticket) domain.Ticket {
	t.AssigneeID = copyString(t.AssigneeID)
	t.Reporter = nil
	t.Assignee = nil
	t.Tags = nil
	return t
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func removeString(items []string, target string) []string {
	out := items[:0:0]
	for _, item := range items {
		if item != target {
			out = append(out, item)
		}
	}
	return out
}
