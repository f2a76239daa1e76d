package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"
)

var (
	// ErrUserNotFound is returned when no matching user exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when a username or email is already registered.
	ErrDuplicateUser = errors.New("username or email already registered")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
