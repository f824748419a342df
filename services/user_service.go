package services

import (
	"context"

	"manuscript-workflow/models"
	"manuscript-workflow/repositories"
)

type UserService interface {
	GetProfile(ctx context.Context, actor models.Actor) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.userRepo.GetByID(ctx, actor.UserID)
}
