package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/password"
)

const dummyPassword = "tokengate-timing-equalizer"

// Verifier checks credentials against a Store. Unknown users still pay for a
// hash comparison so response time does not reveal which usernames exist.
type Verifier struct {
	store   Store
	hasher  *password.Hasher
	dummy   string
	upgrade bool
	logger  *slog.Logger
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithRehash replaces legacy or weaker hashes after a successful login.
func WithRehash(enabled bool) VerifierOption {
	return func(v *Verifier) { v.upgrade = enabled }
}

func WithVerifierLogger(l *slog.Logger) VerifierOption {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewVerifier precomputes the dummy hash used for unknown users.
func NewVerifier(store Store, hasher *password.Hasher, opts ...VerifierOption) (*Verifier, error) {
	if store == nil || hasher == nil {
		return nil, errors.New("users: store and hasher required")
	}
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("users: dummy hash: %w", err)
	}
	v := &Verifier{
		store:  store,
		hasher: hasher,
		dummy:  dummy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify implements tokengate.CredentialVerifier.
func (v *Verifier) Verify(ctx context.Context, username, pw string) (tokengate.Identity, error) {
	u, err := v.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_, _ = v.hasher.Verify(pw, v.dummy)
			return tokengate.Identity{}, tokengate.ErrInvalidCredentials
		}
		return tokengate.Identity{}, err
	}

	ok, err := v.hasher.Verify(pw, u.PasswordHash)
	if errors.Is(err, password.ErrTooLong) {
		return tokengate.Identity{}, tokengate.ErrInvalidCredentials
	}
	if err != nil {
		return tokengate.Identity{}, fmt.Errorf("users: stored hash for %q: %w", username, err)
	}
	if !ok {
		return tokengate.Identity{}, tokengate.ErrInvalidCredentials
	}

	if v.upgrade {
		v.rehash(ctx, u.Username, pw, u.PasswordHash)
	}
	return tokengate.Identity{Username: u.Username, Role: u.Role}, nil
}

// rehash failures never fail the login.
func (v *Verifier) rehash(ctx context.Context, username, pw, current string) {
	needs, err := v.hasher.NeedsRehash(current)
	if err != nil || !needs {
		return
	}
	fresh, err := v.hasher.Hash(pw)
	if err != nil {
		v.logger.WarnContext(ctx, "password rehash failed", "username", username, "error", err)
		return
	}
	if err := v.store.UpdatePasswordHash(ctx, username, fresh); err != nil {
		v.logger.WarnContext(ctx, "password rehash not stored", "username", username, "error", err)
	}
}
