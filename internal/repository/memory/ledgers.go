package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

type assignmentRepo struct{ s *Store }

func (r assignmentRepo) Create(_ context.Context, a *domain.Assignment) error {
	defer r.s.lock()()
	db := r.s.db()
	if _, ok := db.tickets[a.TicketID]; !ok {
		return repository.ErrNotFound
	}
	for _, id := range []string{a.AssignedByUserID, a.AssignedToUserID} {
		if _, ok := db.users[id]; !ok {
			return repository.ErrNotFound
		}
	}
	a.ID = newID()
	a.CreatedAt = r.s.now()
	stored := *a
	stored.PreviousAssignedToUserID = copyString(a.PreviousAssignedToUserID)
	stored.Notes = copyString(a.Notes)
	stored.Ticket, stored.AssignedBy, stored.AssignedTo = nil, nil, nil
	db.assignments = append(db.assignments, stored)
	return nil
}

func (r assignmentRepo) List(_ context.Context, filter repository.AssignmentFilter) ([]domain.Assignment, int64, error) {
	defer r.s.lock()()
	matched := r.newestFirst(func(a domain.Assignment) bool {
		if filter.TicketID != nil && a.TicketID != *filter.TicketID {
			return false
		}
		if filter.AssignedBy != nil && a.AssignedByUserID != *filter.AssignedBy {
			return false
		}
		if filter.AssignedTo != nil && a.AssignedToUserID != *filter.AssignedTo {
			return false
		}
		return true
	})
	return paginate(matched, filter.Page, 50), int64(len(matched)), nil
}

func (r assignmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Assignment, error) {
	defer r.s.lock()()
	return r.newestFirst(func(a domain.Assignment) bool { return a.TicketID == ticketID }), nil
}

func (r assignmentRepo) ListByAssigner(_ context.Context, userID string) ([]domain.Assignment, error) {
	defer r.s.lock()()
	return r.newestFirst(func(a domain.Assignment) bool { return a.AssignedByUserID == userID }), nil
}

func (r assignmentRepo) ListByAssignee(_ context.Context, userID string) ([]domain.Assignment, error) {
	defer r.s.lock()()
	return r.newestFirst(func(a domain.Assignment) bool { return a.AssignedToUserID == userID }), nil
}

func (r assignmentRepo) Stats(_ context.Context, top int) (*domain.AssignmentStats, error) {
	defer r.s.lock()()
	db := r.s.db()

	stats := &domain.AssignmentStats{Total: int64(len(db.assignments))}
	byAction := map[domain.AssignmentAction]int64{}
	byAssigner := map[string]int64{}
	byAssignee := map[string]int64{}
	for _, a := range db.assignments {
		byAction[a.Action]++
		byAssigner[a.AssignedByUserID]++
		byAssignee[a.AssignedToUserID]++
	}
	for action, count := range byAction {
		stats.ByAction = append(stats.ByAction, domain.ActionCount{Action: action, Count: count})
	}
	sort.Slice(stats.ByAction, func(i, j int) bool { return stats.ByAction[i].Action < stats.ByAction[j].Action })

	stats.TopAssigners = r.rank(byAssigner, top)
	stats.TopAssignedUsers = r.rank(byAssignee, top)
	return stats, nil
}

func (r assignmentRepo) rank(counts map[string]int64, top int) []domain.UserCount {
	result := []domain.UserCount{}
	for userID, count := range counts {
		if sum := r.s.summary(userID); sum != nil {
			result = append(result, domain.UserCount{User: *sum, Count: count})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count == result[j].Count {
			return result[i].User.Name < result[j].User.Name
		}
		return result[i].Count > result[j].Count
	})
	if top > 0 && len(result) > top {
		result = result[:top]
	}
	return result
}

func (r assignmentRepo) newestFirst(keep func(domain.Assignment) bool) []domain.Assignment {
	db := r.s.db()
	result := []domain.Assignment{}
	for i := len(db.assignments) - 1; i >= 0; i-- {
		a := db.assignments[i]
		if !keep(a) {
			continue
		}
		if t, ok := db.tickets[a.TicketID]; ok {
			a.Ticket = &domain.TicketSummary{ID: t.ID, Title: t.Title, Status: t.Status, Priority: t.Priority}
		}
		a.AssignedBy = r.s.summary(a.AssignedByUserID)
		a.AssignedTo = r.s.summary(a.AssignedToUserID)
		result = append(result, a)
	}
	return result
}

type activityRepo struct{ s *Store }

func (r activityRepo) Create(_ context.Context, entry *domain.ActivityLog) error {
	defer r.s.lock()()
	db := r.s.db()
	if _, ok := db.tickets[entry.TicketID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := db.users[entry.UserID]; !ok {
		return repository.ErrNotFound
	}
	entry.ID = newID()
	entry.CreatedAt = r.s.now()
	stored := *entry
	if entry.Changes != nil {
		stored.Changes = make(map[string]any, len(entry.Changes))
		for k, v := range entry.Changes {
			stored.Changes[k] = v
		}
	}
	stored.Description = copyString(entry.Description)
	stored.User = nil
	db.activities = append(db.activities, stored)
	return nil
}

func (r activityRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.ActivityLog, error) {
	defer r.s.lock()()
	return r.newestFirst(func(e domain.ActivityLog) bool { return e.TicketID == ticketID }), nil
}

func (r activityRepo) ListByTicketAndUser(_ context.Context, ticketID, userID string) ([]domain.ActivityLog, error) {
	defer r.s.lock()()
	return r.newestFirst(func(e domain.ActivityLog) bool {
		return e.TicketID == ticketID && e.UserID == userID
	}), nil
}

func (r activityRepo) newestFirst(keep func(domain.ActivityLog) bool) []domain.ActivityLog {
	db := r.s.db()
	result := []domain.ActivityLog{}
	for i := len(db.activities) - 1; i >= 0; i-- {
		e := db.activities[i]
		if keep(e) {
			e.User = r.s.summary(e.UserID)
			result = append(result, e)
		}
	}
	return result
}
