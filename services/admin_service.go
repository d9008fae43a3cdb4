package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
)

type AdminUserService interface {
	ListUsers(ctx context.Context, filter models.UserFilter) (models.UserListResponse, error)
	DeleteUser(ctx context.Context, actor Actor, userID int) error
	UpdateUserStatus(ctx context.Context, actor Actor, userID int, status models.UserStatus) (*models.User, error)
}

type adminUserService struct {
	userRepo repositories.UserRepository
}

func NewAdminUserService(userRepo repositories.UserRepository) AdminUserService {
	return &adminUserService{userRepo: userRepo}
}

func (s *adminUserService) ListUsers(ctx context.Context, filter models.UserFilter) (models.UserListResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return models.UserListResponse{}, fmt.Errorf("failed to list users: %w", err)
	}

	for i := range users {
		users[i].PasswordHash = ""
	}
	return models.UserListResponse{
		Users:      users,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *adminUserService) DeleteUser(ctx context.Context, actor Actor, userID int) error {
	if actor.UserID == userID {
		return fmt.Errorf("%w: administrators cannot delete themselves", ErrForbiddenOperation)
	}
	err := s.userRepo.Delete(ctx, userID)
	return translateError(err, fmt.Sprintf("failed to delete user %d", userID), map[error]error{
		repositories.ErrUserNotFound: ErrUserNotFound,
	})
}

func (s *adminUserService) UpdateUserStatus(ctx context.Context, actor Actor, userID int, status models.UserStatus) (*models.User, error) {
	if status != models.UserStatusActive && status != models.UserStatusBanned {
		return nil, fmt.Errorf("%w: unknown user status %q", ErrValidationFailed, status)
	}
	if actor.UserID == userID && status == models.UserStatusBanned {
		return nil, fmt.Errorf("%w: administrators cannot ban themselves", ErrForbiddenOperation)
	}

	notFound := map[error]error{repositories.ErrUserNotFound: ErrUserNotFound}
	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		return nil, translateError(err, "failed to update user status", notFound)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, translateError(err, "failed to reload user", notFound)
	}
	user.PasswordHash = ""
	return user, nil
}
