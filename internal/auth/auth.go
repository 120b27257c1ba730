// Package auth provides user registration, login and the user directory
// other modules consult.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Profile is the user information shared with other modules.
type Profile struct {
	ID       uuid.UUID
	Username string
	Email    string
	Role     string
}

// UserProvider is how other modules look users up without depending on
// auth internals.
type UserProvider interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (Profile, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}
