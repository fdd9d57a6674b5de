package tokengate

import "context"

// Identity is the authenticated principal attached to a request.
//
// An Identity carries exactly one role. Tokens encode a single role claim and
// the gate never merges roles from other sources.
type Identity struct {
	Username string
	Role     string
}

// HasRole reports whether the identity carries role.
func (i Identity) HasRole(role string) bool {
	return i.Role != "" && i.Role == role
}

// TokenPair is the result of a successful Login or Reissue.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// CredentialVerifier checks a username and password. Implementations return
// ErrInvalidCredentials (possibly wrapped) for an unknown user or a wrong
// password; any other error is treated as a backend failure.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (Identity, error)
}

// CredentialVerifierFunc adapts a function to CredentialVerifier.
type CredentialVerifierFunc func(ctx context.Context, username, password string) (Identity, error)

func (f CredentialVerifierFunc) Verify(ctx context.Context, username, password string) (Identity, error) {
	return f(ctx, username, password)
}
