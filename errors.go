package tokengate

import "errors"

var (
	// ErrInvalidCredentials is returned by Login and by CredentialVerifier
	// implementations for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned when the login attempt budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrReissueRateLimited is returned when the reissue budget is exhausted.
	ErrReissueRateLimited = errors.New("reissue rate limited")

	// ErrRefreshMissing means no refresh token accompanied the request.
	ErrRefreshMissing = errors.New("refresh token is missing")
	// ErrRefreshExpired means the refresh token is past its expiry.
	ErrRefreshExpired = errors.New("refresh token is expired")
	// ErrRefreshInvalid means the refresh token is malformed, forged, or not
	// of the refresh category.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshNotFound means the refresh token is well-formed but has no
	// record, because it was rotated, logged out, revoked, or never issued.
	ErrRefreshNotFound = errors.New("refresh token is not found")

	// ErrAccessExpired means the access token is past its expiry.
	ErrAccessExpired = errors.New("access token expired")
	// ErrAccessInvalid means the access token is malformed or forged.
	ErrAccessInvalid = errors.New("invalid access token")
	// ErrWrongTokenType means a correctly signed token of the wrong category
	// was presented.
	ErrWrongTokenType = errors.New("invalid token type")

	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ReissueReason returns the client-facing reason for a Reissue or Logout
// failure. Store and other internal failures yield "".
func ReissueReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRefreshMissing):
		return "refresh token is missing"
	case errors.Is(err, ErrRefreshExpired):
		return "refresh token is expired"
	case errors.Is(err, ErrRefreshNotFound):
		return "refresh token is not found"
	case errors.Is(err, ErrRefreshInvalid):
		return "token is invalid"
	default:
		return ""
	}
}
