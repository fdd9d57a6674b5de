package users

import (
	"context"
	"errors"
	"time"
)

// DefaultRole is assigned to accounts created through Registrar.
const DefaultRole = "ROLE_ADMIN"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// User is a stored account. PasswordHash is a PHC argon2id string or a legacy
// bcrypt hash.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Store persists users. Create returns ErrUserExists on a duplicate username;
// lookups return ErrUserNotFound.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdatePasswordHash(ctx context.Context, username, hash string) error
}
