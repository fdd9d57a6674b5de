package tokengate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/tokengate/internal/audit"
	"github.com/MrEthical07/tokengate/internal/flows"
	"github.com/MrEthical07/tokengate/internal/rate"
	"github.com/MrEthical07/tokengate/jwt"
	"github.com/MrEthical07/tokengate/password"
	"github.com/MrEthical07/tokengate/refresh"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	verifier  CredentialVerifier
	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the refresh store and rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithVerifier sets the credential verifier consulted by Login.
func (b *Builder) WithVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditSink sets the audit destination. It only takes effect when
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithLogger sets the engine logger. Nil keeps slog.Default.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides the time source used for token timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.verifier == nil {
		return nil, errors.New("credential verifier required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	codec, err := jwt.NewCodec(jwt.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Leeway: cfg.JWT.Leeway,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		codec:        codec,
		refreshStore: refresh.NewStore(b.redis, cfg.Refresh.RedisPrefix),
		rateLimiter: rate.New(b.redis, rate.Config{
			EnableIPThrottle:   cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:   cfg.Security.MaxLoginAttempts,
			LoginCooldown:      cfg.Security.LoginCooldown,
			MaxReissueAttempts: cfg.Security.MaxReissueAttempts,
			ReissueWindow:      cfg.Security.ReissueWindow,
		}),
		verifier: b.verifier,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:     cfg.Audit.Enabled,
			BufferSize:  cfg.Audit.BufferSize,
			DropIfFull:  cfg.Audit.DropIfFull,
			SinkTimeout: cfg.Audit.SinkTimeout,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		now:     now,
	}
	engine.flow = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}

func (e *Engine) flowDeps() flows.Deps {
	issueAccess := func(username, role string) (string, error) {
		return e.codec.Encode(jwt.CategoryAccess, username, role, e.config.JWT.AccessTTL)
	}
	issueRefresh := func(username, role string) (string, error) {
		return e.codec.Encode(jwt.CategoryRefresh, username, role, e.config.JWT.RefreshTTL)
	}

	return flows.Deps{
		Login: flows.LoginDeps{
			ClientIPFromContext: ClientIPFromContext,
			Verify: func(ctx context.Context, username, password string) (flows.LoginIdentity, error) {
				id, err := e.verifier.Verify(ctx, username, password)
				return flows.LoginIdentity{Username: id.Username, Role: id.Role}, err
			},
			IssueAccess:        issueAccess,
			IssueRefresh:       issueRefresh,
			RefreshTTL:         e.config.JWT.RefreshTTL,
			RateLimiter:        e.rateLimiter,
			RefreshStore:       e.refreshStore,
			Warn:               e.logger.Warn,
			InvalidCredentials: ErrInvalidCredentials,
			RateLimited:        rate.ErrRateLimited,
		},
		Reissue: flows.ReissueDeps{
			Decode:       e.codec.Decode,
			IssueAccess:  issueAccess,
			IssueRefresh: issueRefresh,
			RefreshTTL:   e.config.JWT.RefreshTTL,
			RateLimiter:  e.rateLimiter,
			RefreshStore: e.refreshStore,
			RateLimited:  rate.ErrRateLimited,
		},
		Logout: flows.LogoutDeps{
			Decode:       e.codec.Decode,
			RefreshStore: e.refreshStore,
		},
		Authenticate: flows.AuthenticateDeps{
			Decode: e.codec.Decode,
		},
	}
}

// HasherConfig converts the argon2id settings for the password package.
func (c PasswordConfig) HasherConfig() password.Config {
	hc := password.DefaultConfig()
	hc.Memory = c.Memory
	hc.Time = c.Time
	hc.Parallelism = c.Parallelism
	hc.SaltLength = c.SaltLength
	hc.KeyLength = c.KeyLength
	return hc
}
