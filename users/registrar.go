package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/tokengate/password"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// JoinRequest is the body of POST /join.
type JoinRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// JoinResult never carries the password hash.
type JoinResult struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ErrInvalidJoin wraps validation failures from Register.
var ErrInvalidJoin = errors.New("invalid registration")

// Registrar creates accounts with DefaultRole.
type Registrar struct {
	store  Store
	hasher *password.Hasher
}

func NewRegistrar(store Store, hasher *password.Hasher) *Registrar {
	return &Registrar{store: store, hasher: hasher}
}

// Register validates req, rejects duplicates with ErrUserExists and stores a
// hashed password.
func (r *Registrar) Register(ctx context.Context, req JoinRequest) (JoinResult, error) {
	if err := validate.Struct(req); err != nil {
		return JoinResult{}, fmt.Errorf("%w: %v", ErrInvalidJoin, err)
	}

	exists, err := r.store.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return JoinResult{}, err
	}
	if exists {
		return JoinResult{}, ErrUserExists
	}

	hash, err := r.hasher.Hash(req.Password)
	if err != nil {
		return JoinResult{}, fmt.Errorf("%w: %v", ErrInvalidJoin, err)
	}

	u := &User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         DefaultRole,
	}
	if err := r.store.Create(ctx, u); err != nil {
		return JoinResult{}, err
	}
	return JoinResult{Username: u.Username, Role: u.Role}, nil
}
