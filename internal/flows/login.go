package flows

import (
	"context"
	"errors"
	"time"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureNotReady
	LoginFailureRateLimited
	LoginFailureInvalidCredentials
	LoginFailureVerifier
	LoginFailureRateBackend
	LoginFailureIssue
	LoginFailureStore
)

// LoginIdentity is the flow-local view of a verified principal.
type LoginIdentity struct {
	Username string
	Role     string
}

// LoginResult carries either the issued pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	Username     string
	Role         string
	AccessToken  string
	RefreshToken string
}

// LoginRateLimiter is the subset of the rate limiter used by login.
type LoginRateLimiter interface {
	CheckLogin(ctx context.Context, username, ip string) error
	RecordLoginFailure(ctx context.Context, username, ip string) error
	ResetLogin(ctx context.Context, username, ip string) error
}

// LoginRefreshStore persists the refresh token minted at login.
type LoginRefreshStore interface {
	Save(ctx context.Context, token string, ttl time.Duration) error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string
	Verify              func(ctx context.Context, username, password string) (LoginIdentity, error)
	IssueAccess         func(username, role string) (string, error)
	IssueRefresh        func(username, role string) (string, error)
	RefreshTTL          time.Duration
	RateLimiter         LoginRateLimiter
	RefreshStore        LoginRefreshStore
	Warn                func(string, ...any)

	InvalidCredentials error
	RateLimited        error
}

// RunLogin verifies credentials and issues an access/refresh pair. Nothing is
// written to the refresh store unless every earlier step succeeded.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) LoginResult {
	if deps.Verify == nil || deps.IssueAccess == nil || deps.IssueRefresh == nil || deps.RefreshStore == nil {
		return LoginResult{Failure: LoginFailureNotReady}
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}

	ip := deps.ClientIPFromContext(ctx)

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckLogin(ctx, username, ip); err != nil {
			if deps.RateLimited != nil && errors.Is(err, deps.RateLimited) {
				return LoginResult{Failure: LoginFailureRateLimited, Err: err, Username: username}
			}
			return LoginResult{Failure: LoginFailureRateBackend, Err: err, Username: username}
		}
	}

	identity, err := deps.Verify(ctx, username, password)
	if err != nil {
		if deps.InvalidCredentials != nil && errors.Is(err, deps.InvalidCredentials) {
			if deps.RateLimiter != nil {
				if rerr := deps.RateLimiter.RecordLoginFailure(ctx, username, ip); rerr != nil &&
					(deps.RateLimited == nil || !errors.Is(rerr, deps.RateLimited)) {
					deps.Warn("tokengate: recording login failure", "error", rerr)
				}
			}
			return LoginResult{Failure: LoginFailureInvalidCredentials, Err: err, Username: username}
		}
		return LoginResult{Failure: LoginFailureVerifier, Err: err, Username: username}
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.ResetLogin(ctx, username, ip); err != nil {
			deps.Warn("tokengate: resetting login counter", "error", err)
		}
	}

	access, err := deps.IssueAccess(identity.Username, identity.Role)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Username: identity.Username}
	}
	refresh, err := deps.IssueRefresh(identity.Username, identity.Role)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Username: identity.Username}
	}

	if err := deps.RefreshStore.Save(ctx, refresh, deps.RefreshTTL); err != nil {
		return LoginResult{Failure: LoginFailureStore, Err: err, Username: identity.Username}
	}

	return LoginResult{
		Username:     identity.Username,
		Role:         identity.Role,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
