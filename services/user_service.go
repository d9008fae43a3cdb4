package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
)

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get user %d", userID), map[error]error{
			repositories.ErrUserNotFound: ErrUserNotFound,
		})
	}
	user.PasswordHash = ""
	return user, nil
}
