package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Authenticate.Decode != nil
}

func (s Service) Login(ctx context.Context, username, password string) LoginResult {
	return RunLogin(ctx, username, password, s.deps.Login)
}

func (s Service) Reissue(ctx context.Context, refreshToken string) ReissueResult {
	return RunReissue(ctx, refreshToken, s.deps.Reissue)
}

func (s Service) Logout(ctx context.Context, refreshToken string) LogoutResult {
	return RunLogout(ctx, refreshToken, s.deps.Logout)
}

func (s Service) Authenticate(token string) AuthenticateResult {
	if s.deps.Authenticate.Decode == nil {
		return AuthenticateResult{Outcome: AuthenticateMalformed}
	}
	return RunAuthenticate(token, s.deps.Authenticate)
}
