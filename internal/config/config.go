// Package config loads the tokengate server configuration from YAML and
// TOKENGATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/tokengate"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustProxy      bool          `mapstructure:"trust_proxy"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// DatabaseConfig selects the user store. Type is "memory" or "postgres".
type DatabaseConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	Issuer             string        `mapstructure:"issuer"`
	AccessTokenTTL     time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `mapstructure:"refresh_token_ttl"`
	Leeway             time.Duration `mapstructure:"leeway"`
	AccessHeader       string        `mapstructure:"access_header"`
	CookieName         string        `mapstructure:"cookie_name"`
	CookieSecure       bool          `mapstructure:"cookie_secure"`
	CookieSameSite     string        `mapstructure:"cookie_same_site"`
	MaxLoginAttempts   int           `mapstructure:"max_login_attempts"`
	LoginCooldown      time.Duration `mapstructure:"login_cooldown"`
	EnableIPThrottle   bool          `mapstructure:"enable_ip_throttle"`
	MaxReissueAttempts int           `mapstructure:"max_reissue_attempts"`
	ReissueWindow      time.Duration `mapstructure:"reissue_window"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// AuditConfig enables the audit pipeline. An empty NATSURL writes audit
// events as JSON lines to the log output instead.
type AuditConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BufferSize int    `mapstructure:"buffer_size"`
	NATSURL    string `mapstructure:"nats_url"`
	Subject    string `mapstructure:"subject"`
}

// Load reads configPath, or config.yaml from the working directory and
// /etc/tokengate when configPath is empty. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/tokengate")
	}

	v.SetEnvPrefix("TOKENGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := tokengate.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", def.Refresh.RedisPrefix)

	v.SetDefault("database.type", "memory")
	v.SetDefault("database.dsn", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.access_token_ttl", def.JWT.AccessTTL.String())
	v.SetDefault("auth.refresh_token_ttl", def.JWT.RefreshTTL.String())
	v.SetDefault("auth.leeway", "0s")
	v.SetDefault("auth.access_header", def.AccessHeader)
	v.SetDefault("auth.cookie_name", def.Cookie.Name)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.cookie_same_site", "lax")
	v.SetDefault("auth.max_login_attempts", def.Security.MaxLoginAttempts)
	v.SetDefault("auth.login_cooldown", def.Security.LoginCooldown.String())
	v.SetDefault("auth.enable_ip_throttle", def.Security.EnableIPThrottle)
	v.SetDefault("auth.max_reissue_attempts", def.Security.MaxReissueAttempts)
	v.SetDefault("auth.reissue_window", def.Security.ReissueWindow.String())

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.max_age", 3600)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.buffer_size", def.Audit.BufferSize)
	v.SetDefault("audit.nats_url", "")
	v.SetDefault("audit.subject", "tokengate.audit")
}

// EngineConfig translates the auth section into a tokengate.Config. The
// refresh cookie lives exactly as long as the refresh token.
func (c *Config) EngineConfig() (tokengate.Config, error) {
	out := tokengate.DefaultConfig()

	out.JWT.Secret = []byte(c.Auth.JWTSecret)
	out.JWT.Issuer = c.Auth.Issuer
	out.JWT.AccessTTL = c.Auth.AccessTokenTTL
	out.JWT.RefreshTTL = c.Auth.RefreshTokenTTL
	out.JWT.Leeway = c.Auth.Leeway

	out.AccessHeader = c.Auth.AccessHeader
	out.Cookie.Name = c.Auth.CookieName
	out.Cookie.Secure = c.Auth.CookieSecure
	out.Cookie.MaxAge = int(c.Auth.RefreshTokenTTL / time.Second)
	sameSite, err := parseSameSite(c.Auth.CookieSameSite)
	if err != nil {
		return tokengate.Config{}, err
	}
	out.Cookie.SameSite = sameSite

	out.Refresh.RedisPrefix = c.Redis.Prefix

	out.Security.MaxLoginAttempts = c.Auth.MaxLoginAttempts
	out.Security.LoginCooldown = c.Auth.LoginCooldown
	out.Security.EnableIPThrottle = c.Auth.EnableIPThrottle
	out.Security.MaxReissueAttempts = c.Auth.MaxReissueAttempts
	out.Security.ReissueWindow = c.Auth.ReissueWindow

	out.Audit.Enabled = c.Audit.Enabled
	if c.Audit.BufferSize > 0 {
		out.Audit.BufferSize = c.Audit.BufferSize
	}

	if err := out.Validate(); err != nil {
		return tokengate.Config{}, fmt.Errorf("auth config: %w", err)
	}
	return out, nil
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown cookie_same_site %q", s)
	}
}
