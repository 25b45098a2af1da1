package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	db := r.s.db()
	for _, existing := range db.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	db.users[user.ID] = *user
	return nil
}

func (r userRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	defer r.s.lock()()
	db := r.s.db()
	user, ok := db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user.Role = role
	user.UpdatedAt = r.s.now()
	db.users[id] = user
	return &user, nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	defer r.s.lock()()
	user, ok := r.s.db().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, user := range r.s.db().users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) List(_ context.Context, role domain.Role) ([]domain.User, error) {
	defer r.s.lock()()
	result := []domain.User{}
	for _, user := range r.s.db().users {
		if role.IsZero() || user.Role == role {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}
