package services

import (
	"context"

	"market/internal/models"
	"market/internal/uow"
)

// UserService handles changes users make to their own account.
type UserService struct{}

// NewUserService creates a new UserService.
func NewUserService() *UserService {
	return &UserService{}
}

// UpdateUser applies patch to the acting user and commits.
func (s *UserService) UpdateUser(ctx context.Context, unit uow.UnitOfWork, actor *models.User, patch models.UserPatch) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	actor.Apply(patch)
	if _, err := unit.Users().Update(ctx, actor); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return actor, nil
}
