package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/tokengate/jwt"
)

// ReissueFailureKind classifies reissue failures for root-level mapping.
type ReissueFailureKind int

const (
	ReissueFailureNone ReissueFailureKind = iota
	ReissueFailureNotReady
	ReissueFailureExpired
	ReissueFailureInvalid
	ReissueFailureWrongCategory
	ReissueFailureRateLimited
	ReissueFailureRateBackend
	ReissueFailureIssue
	ReissueFailureNotFound
	ReissueFailureStore
)

// ReissueResult carries either the rotated pair or failure metadata.
type ReissueResult struct {
	Failure      ReissueFailureKind
	Err          error
	Username     string
	Role         string
	AccessToken  string
	RefreshToken string
}

type ReissueRateLimiter interface {
	CheckReissue(ctx context.Context, username string) error
}

type ReissueRefreshStore interface {
	Rotate(ctx context.Context, oldToken, newToken string, ttl time.Duration) (bool, error)
}

// ReissueDeps captures reissue dependencies.
type ReissueDeps struct {
	Decode       func(string) (*jwt.Claims, error)
	IssueAccess  func(username, role string) (string, error)
	IssueRefresh func(username, role string) (string, error)
	RefreshTTL   time.Duration
	RateLimiter  ReissueRateLimiter
	RefreshStore ReissueRefreshStore
	RateLimited  error
}

// RunReissue validates a refresh token (expiry, then category, then presence)
// and rotates it. Presence and rotation are one atomic store call, so a
// concurrent reissue of the same token loses with ReissueFailureNotFound.
func RunReissue(ctx context.Context, refreshToken string, deps ReissueDeps) ReissueResult {
	if deps.Decode == nil || deps.IssueAccess == nil || deps.IssueRefresh == nil || deps.RefreshStore == nil {
		return ReissueResult{Failure: ReissueFailureNotReady}
	}

	claims, err := deps.Decode(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			res := ReissueResult{Failure: ReissueFailureExpired, Err: err}
			if claims != nil {
				res.Username = claims.Username()
			}
			return res
		}
		return ReissueResult{Failure: ReissueFailureInvalid, Err: err}
	}

	if err := claims.Require(jwt.CategoryRefresh); err != nil {
		return ReissueResult{Failure: ReissueFailureWrongCategory, Err: err, Username: claims.Username()}
	}

	username, role := claims.Username(), claims.Role

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckReissue(ctx, username); err != nil {
			if deps.RateLimited != nil && errors.Is(err, deps.RateLimited) {
				return ReissueResult{Failure: ReissueFailureRateLimited, Err: err, Username: username}
			}
			return ReissueResult{Failure: ReissueFailureRateBackend, Err: err, Username: username}
		}
	}

	access, err := deps.IssueAccess(username, role)
	if err != nil {
		return ReissueResult{Failure: ReissueFailureIssue, Err: err, Username: username}
	}
	refresh, err := deps.IssueRefresh(username, role)
	if err != nil {
		return ReissueResult{Failure: ReissueFailureIssue, Err: err, Username: username}
	}

	rotated, err := deps.RefreshStore.Rotate(ctx, refreshToken, refresh, deps.RefreshTTL)
	if err != nil {
		return ReissueResult{Failure: ReissueFailureStore, Err: err, Username: username}
	}
	if !rotated {
		return ReissueResult{Failure: ReissueFailureNotFound, Username: username}
	}

	return ReissueResult{
		Username:     username,
		Role:         role,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
