package service

import (
	"context"
	"fmt"

	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"
)

type UserService interface {
	// Sync records the token identity so notifications can reach the user.
	Sync(ctx context.Context, actor model.Actor) (*model.User, error)
}

type userServiceImpl struct {
	userRepo repository.UserRepository
}

func NewUserService(
	userRepo repository.UserRepository,
) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
	}
}

func (s *userServiceImpl) Sync(ctx context.Context, actor model.Actor) (*model.User, error) {
	role := actor.Role
	if role == "" {
		role = model.RoleCustomer
	}

	err := s.userRepo.Upsert(ctx, &model.User{
		ID:    actor.UserID,
		Email: actor.Email,
		Role:  role,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
