package tokengate

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/tokengate/jwt"
)

// Config is the immutable engine configuration. Builder.Build copies it into
// the Engine; later changes to the caller's value have no effect.
type Config struct {
	JWT      JWTConfig
	Cookie   CookieConfig
	Refresh  RefreshConfig
	Password PasswordConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	// AccessHeader is the request and response header carrying the access token.
	AccessHeader string
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls token signing and lifetimes.
type JWTConfig struct {
	// Secret is the HS256 key shared by every instance. At least 32 bytes.
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig describes the refresh-token cookie.
type CookieConfig struct {
	Name     string
	Path     string
	MaxAge   int
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
REFRESH STORE CONFIG
====================================
*/

type RefreshConfig struct {
	RedisPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters used by the bundled verifier.
type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls Redis-backed attempt budgets. A zero budget disables
// the corresponding limiter.
type SecurityConfig struct {
	MaxLoginAttempts   int
	LoginCooldown      time.Duration
	EnableIPThrottle   bool
	MaxReissueAttempts int
	ReissueWindow      time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled     bool
	BufferSize  int
	DropIfFull  bool
	SinkTimeout time.Duration
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults. JWT.Secret is left empty and
// must be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  10 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		Cookie: CookieConfig{
			Name:     "refresh",
			Path:     "/",
			MaxAge:   24 * 60 * 60,
			SameSite: http.SameSiteLaxMode,
		},
		Refresh: RefreshConfig{
			RedisPrefix: "refresh_token",
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Security: SecurityConfig{
			MaxLoginAttempts:   5,
			LoginCooldown:      15 * time.Minute,
			EnableIPThrottle:   false,
			MaxReissueAttempts: 0,
			ReissueWindow:      time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		AccessHeader: "access",
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < jwt.MinSecretLength {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must exceed AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie Name must not be empty")
	}
	if c.Cookie.MaxAge <= 0 {
		return errors.New("Cookie MaxAge must be > 0")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}
	if strings.TrimSpace(c.AccessHeader) == "" {
		return errors.New("AccessHeader must not be empty")
	}

	// Refresh store
	if strings.TrimSpace(c.Refresh.RedisPrefix) == "" {
		return errors.New("Refresh RedisPrefix must not be empty")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Security
	if c.Security.MaxLoginAttempts < 0 || c.Security.MaxReissueAttempts < 0 {
		return errors.New("Security attempt budgets must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldown <= 0 {
		return errors.New("Security LoginCooldown must be > 0 when MaxLoginAttempts is set")
	}
	if c.Security.MaxReissueAttempts > 0 && c.Security.ReissueWindow <= 0 {
		return errors.New("Security ReissueWindow must be > 0 when MaxReissueAttempts is set")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Audit.SinkTimeout < 0 {
		return errors.New("Audit SinkTimeout must be >= 0")
	}

	return nil
}
