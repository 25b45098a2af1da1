package memory

import (
	"context"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

type commentRepo struct{ s *Store }

func (r commentRepo) Create(_ context.Context, comment *domain.Comment) error {
	defer r.s.lock()()
	db := r.s.db()
	if _, ok := db.tickets[comment.TicketID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := db.users[comment.AuthorID]; !ok {
		return repository.ErrNotFound
	}
	now := r.s.now()
	comment.ID = newID()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	stored := *comment
	stored.Author = nil
	db.comments[comment.ID] = stored
	db.commentOrder = append(db.commentOrder, comment.ID)
	return nil
}

func (r commentRepo) UpdateBody(_ context.Context, comment *domain.Comment) error {
	defer r.s.lock()()
	db := r.s.db()
	stored, ok := db.comments[comment.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Body = comment.Body
	stored.UpdatedAt = r.s.now()
	comment.UpdatedAt = stored.UpdatedAt
	db.comments[comment.ID] = stored
	return nil
}

func (r commentRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	db := r.s.db()
	if _, ok := db.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(db.comments, id)
	db.commentOrder = removeString(db.commentOrder, id)
	return nil
}

func (r commentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	defer r.s.lock()()
	comment, ok := r.s.db().comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	comment.Author = r.s.summary(comment.AuthorID)
	return &comment, nil
}

func (r commentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	defer r.s.lock()()
	db := r.s.db()
	result := []domain.Comment{}
	for i := len(db.commentOrder) - 1; i >= 0; i-- {
		comment := db.comments[db.commentOrder[i]]
		if comment.TicketID == ticketID {
			comment.Author = r.s.summary(comment.AuthorID)
			result = append(result, comment)
		}
	}
	return result, nil
}
