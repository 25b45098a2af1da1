package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// TagService manages the tag catalogue.
type TagService struct {
	store repository.Store
}

// NewTagService constructs the service.
func NewTagService(store repository.Store) *TagService {
	return &TagService{store: store}
}

// Create adds a tag. Admin only.
func (s *TagService) Create(ctx context.Context, identity domain.Identity, name string) (*domain.Tag, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return nil, apperrors.NewValidationError("name must be between 2 and 50 characters")
	}
	tag := &domain.Tag{Name: name}
	if err := s.store.Tags().Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewValidationError("Tag already exists")
		}
		return nil, apperrors.MapError(err)
	}
	return tag, nil
}

// List returns all tags by name.
func (s *TagService) List(ctx context.Context) ([]domain.Tag, error) {
	tags, err := s.store.Tags().List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tags, nil
}

// Get returns one tag.
func (s *TagService) Get(ctx context.Context, id string) (*domain.Tag, error) {
	tag, err := s.store.Tags().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "tag")
	}
	return tag, nil
}

// Delete removes a tag from the catalogue and every ticket. Admin only.
func (s *TagService) Delete(ctx context.Context, identity domain.Identity, id string) error {
	if err := requireAdmin(identity); err != nil {
		return err
	}
	if err := s.store.Tags().Delete(ctx, id); err != nil {
		return notFoundOr(err, "tag")
	}
	return nil
}
