package tokengate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	internalaudit "github.com/MrEthical07/tokengate/internal/audit"
	"github.com/MrEthical07/tokengate/internal/flows"
	"github.com/MrEthical07/tokengate/internal/rate"
	"github.com/MrEthical07/tokengate/jwt"
	"github.com/MrEthical07/tokengate/refresh"
)

// Engine issues, validates, rotates and revokes tokens. It is safe for
// concurrent use once returned by Builder.Build.
type Engine struct {
	config       Config
	codec        *jwt.Codec
	refreshStore *refresh.Store
	rateLimiter  *rate.Limiter
	verifier     CredentialVerifier
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	now          func() time.Time
	flow         flows.Service
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events dropped due to dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// AccessHeader is the header that carries access tokens in both directions.
func (e *Engine) AccessHeader() string {
	return e.config.AccessHeader
}

// RefreshCookie builds the cookie that carries token. An empty token yields a
// clearing cookie with Max-Age 0.
func (e *Engine) RefreshCookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     e.config.Cookie.Name,
		Value:    token,
		Path:     e.config.Cookie.Path,
		MaxAge:   e.config.Cookie.MaxAge,
		HttpOnly: true,
		Secure:   e.config.Cookie.Secure,
		SameSite: e.config.Cookie.SameSite,
	}
	if token == "" {
		c.MaxAge = -1
	}
	return c
}

// RefreshCookieName is the name of the refresh-token cookie.
func (e *Engine) RefreshCookieName() string {
	return e.config.Cookie.Name
}

// Logger returns the engine logger. It is never nil.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Ping checks the refresh store backend.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.refreshStore == nil {
		return ErrEngineNotReady
	}
	return e.refreshStore.Ping(ctx)
}

// Login verifies credentials and issues a token pair. The refresh token is
// persisted before Login returns; nothing is persisted on failure.
func (e *Engine) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if e == nil || !e.flow.Initialized() {
		return nil, ErrEngineNotReady
	}

	res := e.flow.Login(ctx, username, password)
	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, res.Username, res.RefreshToken, nil, nil)
		return &TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil
	case flows.LoginFailureNotReady:
		return nil, ErrEngineNotReady
	case flows.LoginFailureRateLimited:
		e.metricInc(MetricLoginRateLimited)
		e.emitRateLimit(ctx, "login", res.Username)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, res.Username, "", ErrLoginRateLimited, nil)
		return nil, ErrLoginRateLimited
	case flows.LoginFailureInvalidCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Username, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	case flows.LoginFailureStore:
		e.metricInc(MetricLoginFailure)
		e.metricInc(MetricStoreFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Username, "", res.Err, nil)
		return nil, res.Err
	default:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Username, "", res.Err, nil)
		return nil, fmt.Errorf("login: %w", res.Err)
	}
}

// Reissue validates refreshToken and rotates it into a new pair. Checks run
// in order: expiry, category, presence. The old record is deleted and the new
// one inserted atomically, so each refresh token can be redeemed once.
func (e *Engine) Reissue(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || !e.flow.Initialized() {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		e.metricInc(MetricReissueInvalid)
		return nil, ErrRefreshMissing
	}

	tokenID := refresh.ID(refreshToken)
	res := e.flow.Reissue(ctx, refreshToken)

	var err error
	switch res.Failure {
	case flows.ReissueFailureNone:
		e.metricInc(MetricReissueSuccess)
		e.emitAudit(ctx, auditEventReissueSuccess, true, res.Username, refreshToken, nil, nil)
		return &TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil
	case flows.ReissueFailureNotReady:
		return nil, ErrEngineNotReady
	case flows.ReissueFailureExpired:
		e.metricInc(MetricReissueExpired)
		err = ErrRefreshExpired
	case flows.ReissueFailureWrongCategory:
		e.metricInc(MetricReissueInvalid)
		err = errors.Join(ErrRefreshInvalid, ErrWrongTokenType)
	case flows.ReissueFailureInvalid:
		e.metricInc(MetricReissueInvalid)
		err = ErrRefreshInvalid
		if errors.Is(res.Err, jwt.ErrSignatureInvalid) {
			e.logger.WarnContext(ctx, "refresh token failed signature verification", "token_id", tokenID)
		}
	case flows.ReissueFailureNotFound:
		e.metricInc(MetricReissueNotFound)
		err = ErrRefreshNotFound
	case flows.ReissueFailureRateLimited:
		e.metricInc(MetricReissueRateLimited)
		e.emitRateLimit(ctx, "reissue", res.Username)
		err = ErrReissueRateLimited
	case flows.ReissueFailureStore:
		e.metricInc(MetricStoreFailure)
		err = res.Err
	default:
		err = fmt.Errorf("reissue: %w", res.Err)
	}

	e.emitAudit(ctx, auditEventReissueFailure, false, res.Username, refreshToken, err, nil)
	return nil, err
}

// Logout removes the record for refreshToken. Expired refresh tokens are
// accepted and a token with no record is not an error, so repeating Logout
// is harmless.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || !e.flow.Initialized() {
		return ErrEngineNotReady
	}
	if refreshToken == "" {
		return ErrRefreshMissing
	}

	res := e.flow.Logout(ctx, refreshToken)
	switch res.Failure {
	case flows.LogoutFailureNone:
		e.metricInc(MetricLogout)
		e.emitAudit(ctx, auditEventLogout, true, res.Username, refreshToken, nil, func() map[string]string {
			if res.Removed {
				return nil
			}
			return map[string]string{"record": "absent"}
		})
		return nil
	case flows.LogoutFailureNotReady:
		return ErrEngineNotReady
	case flows.LogoutFailureWrongCategory:
		return errors.Join(ErrRefreshInvalid, ErrWrongTokenType)
	case flows.LogoutFailureInvalid:
		return ErrRefreshInvalid
	case flows.LogoutFailureStore:
		e.metricInc(MetricStoreFailure)
		e.emitAudit(ctx, auditEventLogout, false, res.Username, refreshToken, res.Err, nil)
		return res.Err
	default:
		return fmt.Errorf("logout: %w", res.Err)
	}
}

// Revoke deletes the record for refreshToken without validating it. It is
// meant for administrative use and is idempotent.
func (e *Engine) Revoke(ctx context.Context, refreshToken string) error {
	if e == nil || e.refreshStore == nil {
		return ErrEngineNotReady
	}
	if refreshToken == "" {
		return ErrRefreshMissing
	}
	if err := e.refreshStore.DeleteByToken(ctx, refreshToken); err != nil {
		e.metricInc(MetricStoreFailure)
		return err
	}
	e.metricInc(MetricRevoke)
	e.emitAudit(ctx, auditEventRevoke, true, "", refreshToken, nil, nil)
	return nil
}

// Authenticate validates an access token and returns its identity. It never
// touches the refresh store. Errors are ErrAccessExpired, ErrWrongTokenType
// or ErrAccessInvalid; a forged signature additionally matches
// jwt.ErrSignatureInvalid.
func (e *Engine) Authenticate(ctx context.Context, token string) (Identity, error) {
	if e == nil || !e.flow.Initialized() {
		return Identity{}, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res := e.flow.Authenticate(token)

	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}

	switch res.Outcome {
	case flows.AuthenticateValid:
		e.metricInc(MetricAuthenticateSuccess)
		return Identity{Username: res.Username, Role: res.Role}, nil
	case flows.AuthenticateExpired:
		e.metricInc(MetricAuthenticateExpired)
		e.logger.DebugContext(ctx, "access token expired", "username", res.Username)
		return Identity{}, ErrAccessExpired
	case flows.AuthenticateWrongCategory:
		e.metricInc(MetricAuthenticateWrongType)
		return Identity{}, ErrWrongTokenType
	case flows.AuthenticateSignatureInvalid:
		e.metricInc(MetricAuthenticateForged)
		e.logger.WarnContext(ctx, "access token failed signature verification", "ip", ClientIPFromContext(ctx))
		return Identity{}, errors.Join(ErrAccessInvalid, jwt.ErrSignatureInvalid)
	default:
		e.metricInc(MetricAuthenticateInvalid)
		return Identity{}, ErrAccessInvalid
	}
}
