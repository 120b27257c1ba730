package repository

import (
	"context"

	"github.com/google/uuid"
)

// UserReader is the read side of the user store. Other modules reach users
// through adapters built on it.
type UserReader interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// AuthRepository defines the data operations of the auth service.
type AuthRepository interface {
	UserReader
	CreateUser(ctx context.Context, u User) error
}

// Ensure Repository implements AuthRepository
var _ AuthRepository = (*Repository)(nil)
