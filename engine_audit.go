package tokengate

import (
	"context"
	"errors"

	"github.com/MrEthical07/tokengate/jwt"
	"github.com/MrEthical07/tokengate/refresh"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventReissueSuccess     = "reissue_success"
	auditEventReissueFailure     = "reissue_failure"
	auditEventLogout             = "logout"
	auditEventRevoke             = "revoke"
	auditEventRateLimitTriggered = "rate_limit_triggered"
)

// AuditErrorCode is the stable error vocabulary written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrMissing            AuditErrorCode = "missing_token"
	auditErrExpired            AuditErrorCode = "expired_token"
	auditErrWrongType          AuditErrorCode = "wrong_token_type"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrNotFound           AuditErrorCode = "token_not_found"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// emitAudit records an event. token, when set, is reduced to its store
// record ID so raw tokens never reach a sink.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	username string,
	token string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Username:  username,
		IP:        ClientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if token != "" {
		event.TokenID = refresh.ID(token)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, username string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, username, "", nil, func() map[string]string {
		return map[string]string{"scope": scope}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginRateLimited), errors.Is(err, ErrReissueRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrRefreshMissing):
		return auditErrMissing
	case errors.Is(err, ErrRefreshExpired), errors.Is(err, ErrAccessExpired):
		return auditErrExpired
	case errors.Is(err, ErrWrongTokenType):
		return auditErrWrongType
	case errors.Is(err, ErrRefreshInvalid), errors.Is(err, ErrAccessInvalid),
		errors.Is(err, jwt.ErrMalformed), errors.Is(err, jwt.ErrSignatureInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrRefreshNotFound):
		return auditErrNotFound
	case errors.Is(err, refresh.ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

