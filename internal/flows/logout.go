package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/tokengate/jwt"
)

// LogoutFailureKind classifies logout failures for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureNotReady
	LogoutFailureInvalid
	LogoutFailureWrongCategory
	LogoutFailureStore
)

type LogoutRefreshStore interface {
	FindDelete(ctx context.Context, token string) (bool, error)
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Decode       func(string) (*jwt.Claims, error)
	RefreshStore LogoutRefreshStore
}

// LogoutResult reports whether a record was removed. Removed is false on a
// repeated logout, which is not a failure.
type LogoutResult struct {
	Failure  LogoutFailureKind
	Err      error
	Username string
	Removed  bool
}

// RunLogout removes the record for a well-formed refresh token. Expired
// refresh tokens are accepted; the access token plays no part.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	if deps.Decode == nil || deps.RefreshStore == nil {
		return LogoutResult{Failure: LogoutFailureNotReady}
	}

	claims, err := deps.Decode(refreshToken)
	if err != nil && !errors.Is(err, jwt.ErrExpired) {
		return LogoutResult{Failure: LogoutFailureInvalid, Err: err}
	}
	if err := claims.Require(jwt.CategoryRefresh); err != nil {
		return LogoutResult{Failure: LogoutFailureWrongCategory, Err: err, Username: claims.Username()}
	}

	removed, err := deps.RefreshStore.FindDelete(ctx, refreshToken)
	if err != nil {
		return LogoutResult{Failure: LogoutFailureStore, Err: err, Username: claims.Username()}
	}

	return LogoutResult{Username: claims.Username(), Removed: removed}
}
