package flows

import (
	"errors"

	"github.com/MrEthical07/tokengate/jwt"
)

// AuthenticateOutcome is the state the gate ends in for a presented token.
type AuthenticateOutcome int

const (
	AuthenticateValid AuthenticateOutcome = iota
	AuthenticateExpired
	AuthenticateWrongCategory
	AuthenticateSignatureInvalid
	AuthenticateMalformed
)

// AuthenticateResult carries the decoded principal for AuthenticateValid.
type AuthenticateResult struct {
	Outcome  AuthenticateOutcome
	Err      error
	Username string
	Role     string
}

// AuthenticateDeps captures access-token validation dependencies.
type AuthenticateDeps struct {
	Decode func(string) (*jwt.Claims, error)
}

// RunAuthenticate classifies an access token. It is a pure function of the
// token and the codec clock and performs no writes.
func RunAuthenticate(token string, deps AuthenticateDeps) AuthenticateResult {
	claims, err := deps.Decode(token)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrExpired):
		return AuthenticateResult{Outcome: AuthenticateExpired, Err: err, Username: claims.Username()}
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return AuthenticateResult{Outcome: AuthenticateSignatureInvalid, Err: err}
	default:
		return AuthenticateResult{Outcome: AuthenticateMalformed, Err: err}
	}

	if err := claims.Require(jwt.CategoryAccess); err != nil {
		return AuthenticateResult{Outcome: AuthenticateWrongCategory, Err: err, Username: claims.Username()}
	}

	return AuthenticateResult{
		Outcome:  AuthenticateValid,
		Username: claims.Username(),
		Role:     claims.Role,
	}
}
