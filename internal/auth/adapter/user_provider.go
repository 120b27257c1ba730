// Package adapter exposes the auth user store through the UserProvider
// interface consumed by other modules.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"crm_backend/internal/auth"
	"crm_backend/internal/auth/repository"
	"crm_backend/platform/apperr"
)

// UserProviderAdapter implements auth.UserProvider using the auth repository.
type UserProviderAdapter struct {
	repo repository.UserReader
}

func NewUserProviderAdapter(repo repository.UserReader) *UserProviderAdapter {
	return &UserProviderAdapter{repo: repo}
}

func (a *UserProviderAdapter) GetUserByID(ctx context.Context, userID uuid.UUID) (auth.Profile, error) {
	user, err := a.repo.GetUserByID(ctx, userID)
	if err != nil {
		return auth.Profile{}, err
	}
	return auth.Profile{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

func (a *UserProviderAdapter) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := a.repo.GetUserByID(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var _ auth.UserProvider = (*UserProviderAdapter)(nil)
