package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// UserService manages accounts and their roles.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(store repository.Store, logger *zap.Logger) *UserService {
	return &UserService{users: store.Users(), logger: nopLogger(logger)}
}

// List returns users ordered by name, optionally narrowed to one role.
func (s *UserService) List(ctx context.Context, role string) ([]domain.User, error) {
	var filter domain.Role
	if role != "" {
		parsed, err := domain.ParseRole(role)
		if err != nil {
			return nil, apperrors.NewValidationError("role must be one of: user, assignee, admin")
		}
		filter = parsed
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// UpdateRole changes another user's role. Admin only; admins cannot change their own role.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.Identity, userID, role string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid role. must be user, assignee, or admin")
	}
	if actor.UserID == userID {
		return nil, apperrors.NewForbidden("you cannot change your own role")
	}

	user, err := s.users.UpdateRole(ctx, userID, parsed)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	s.logger.Info("user role changed",
		zap.String("actor_id", actor.UserID),
		zap.String("user_id", user.ID),
		zap.String("role", parsed.String()))
	return user, nil
}
