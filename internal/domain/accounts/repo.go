package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound indicates that the requested user does not exist.
var ErrNotFound = errors.New("accounts: user not found")

// ErrEmailTaken indicates that the email is already registered.
var ErrEmailTaken = errors.New("accounts: email already registered")

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	AssignRole(ctx context.Context, id uuid.UUID, role string) error
	RemoveRole(ctx context.Context, id uuid.UUID, role string) error
}
