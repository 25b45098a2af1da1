// Package memory is a process-local repository.Store used by tests and by
// development runs without POSTGRES_DSN.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

type tables struct {
	users        map[string]domain.User
	tickets      map[string]domain.Ticket
	ticketOrder  []string
	ticketTags   map[string][]string
	comments     map[string]domain.Comment
	commentOrder []string
	activities   []domain.ActivityLog
	assignments  []domain.Assignment
	tags         map[string]domain.Tag
}

func newTables() *tables {
	return &tables{
		users:      make(map[string]domain.User),
		tickets:    make(map[string]domain.Ticket),
		ticketTags: make(map[string][]string),
		comments:   make(map[string]domain.Comment),
		tags:       make(map[string]domain.Tag),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.tickets {
		c.tickets[k] = v
	}
	c.ticketOrder = append([]string(nil), t.ticketOrder...)
	for k, v := range t.ticketTags {
		c.ticketTags[k] = append([]string(nil), v...)
	}
	for k, v := range t.comments {
		c.comments[k] = v
	}
	c.commentOrder = append([]string(nil), t.commentOrder...)
	c.activities = append([]domain.ActivityLog(nil), t.activities...)
	c.assignments = append([]domain.Assignment(nil), t.assignments...)
	for k, v := range t.tags {
		c.tags[k] = v
	}
	return c
}

// Store implements repository.Store in memory. Transactions are serialized
// and roll back by restoring a snapshot.
type Store struct {
	mu    *sync.Mutex
	state *tables
	held  bool
	now   func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, state: newTables(), now: time.Now}
}

var _ repository.Store = (*Store)(nil)

// lock acquires the store mutex unless the caller is inside WithinTx.
func (s *Store) lock() func() {
	if s.held {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) db() *tables { return s.state }

func (s *Store) Users() repository.UserRepository             { return userRepo{s} }
func (s *Store) Tickets() repository.TicketRepository         { return ticketRepo{s} }
func (s *Store) Assignments() repository.AssignmentRepository { return assignmentRepo{s} }
func (s *Store) Activities() repository.ActivityRepository    { return activityRepo{s} }
func (s *Store) Comments() repository.CommentRepository       { return commentRepo{s} }
func (s *Store) Tags() repository.TagRepository               { return tagRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.held {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.db().clone()
	tx := &Store{mu: s.mu, state: s.state, held: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.state = *snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		*s.state = *snapshot
		return err
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func (s *Store) summary(userID string) *domain.UserSummary {
	user, ok := s.db().users[userID]
	if !ok {
		return nil
	}
	sum := user.Summary()
	return &sum
}

func paginate[T any](items []T, page repository.Page, defaultLimit int) []T {
	page = page.Normalize(defaultLimit)
	if page.Offset >= len(items) {
		return []T{}
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}
