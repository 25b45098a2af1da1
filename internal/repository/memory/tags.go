package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

type tagRepo struct{ s *Store }

func (r tagRepo) Create(_ context.Context, tag *domain.Tag) error {
	defer r.s.lock()()
	db := r.s.db()
	for _, existing := range db.tags {
		if strings.EqualFold(existing.Name, tag.Name) {
			return repository.ErrDuplicate
		}
	}
	tag.ID = newID()
	tag.CreatedAt = r.s.now()
	db.tags[tag.ID] = *tag
	return nil
}

func (r tagRepo) GetByID(_ context.Context, id string) (*domain.Tag, error) {
	defer r.s.lock()()
	tag, ok := r.s.db().tags[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tag, nil
}

func (r tagRepo) List(_ context.Context) ([]domain.Tag, error) {
	defer r.s.lock()()
	result := []domain.Tag{}
	for _, tag := range r.s.db().tags {
		result = append(result, tag)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r tagRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	db := r.s.db()
	if _, ok := db.tags[id]; !ok {
		return repository.ErrNotFound
	}
	delete(db.tags, id)
	for ticketID, ids := range db.ticketTags {
		db.ticketTags[ticketID] = removeString(ids, id)
	}
	return nil
}
