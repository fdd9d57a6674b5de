package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest accepted HS256 secret, in bytes.
const MinSecretLength = 32

var (
	// ErrMalformed is returned for tokens that cannot be parsed or carry invalid claims.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureInvalid is returned when the signature does not verify against the secret
	// or the token was signed with a different algorithm.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired is returned when a correctly signed token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrWrongCategory is returned by Claims.Require when the category does not match.
	ErrWrongCategory = errors.New("token category mismatch")
)

// Category separates access tokens from refresh tokens. A token of one
// category is never accepted where the other is expected.
type Category string

const (
	CategoryAccess  Category = "access"
	CategoryRefresh Category = "refresh"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryAccess || c == CategoryRefresh
}

// Claims is the decoded payload of a token.
type Claims struct {
	Category Category `json:"category"`
	Role     string   `json:"role"`
	jwt.RegisteredClaims
}

// Username returns the subject claim.
func (c *Claims) Username() string {
	return c.Subject
}

// Require returns ErrWrongCategory unless the claims carry the wanted category.
func (c *Claims) Require(want Category) error {
	if c.Category != want {
		return fmt.Errorf("%w: want %s, got %s", ErrWrongCategory, want, c.Category)
	}
	return nil
}

// Config configures a Codec.
type Config struct {
	Secret []byte
	Issuer string
	// Leeway tolerates clock drift between issuers and verifiers. Zero is strict.
	Leeway time.Duration
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// Codec signs and verifies tokens with a shared HS256 secret.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec validates cfg and returns a Codec. The secret is copied.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}

	return &Codec{
		secret: secret,
		issuer: cfg.Issuer,
		now:    cfg.Now,
		parser: jwt.NewParser(options...),
	}, nil
}

// Encode signs a token for subject with the given category, role and lifetime.
// A non-positive ttl yields a token that is already expired.
func (c *Codec) Encode(category Category, subject, role string, ttl time.Duration) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("unknown token category %q", category)
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject must not be empty")
	}

	now := c.now()
	claims := Claims{
		Category: category,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies token and returns its claims. When the only problem is
// expiry, the claims are returned alongside ErrExpired.
func (c *Codec) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(token, claims, c.keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			if verr := validateShape(claims); verr != nil {
				return nil, verr
			}
			return claims, ErrExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if err := validateShape(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// IsExpired reports whether the token's expiry is at or before now. It
// returns an error only for tokens that are malformed or fail verification.
func (c *Codec) IsExpired(token string) (bool, error) {
	claims, err := c.Decode(token)
	if errors.Is(err, ErrExpired) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return !claims.ExpiresAt.Time.After(c.now()), nil
}

// Category returns the category claim. Expired tokens still yield a category.
func (c *Codec) Category(token string) (Category, error) {
	claims, err := c.decodeAllowExpired(token)
	if err != nil {
		return "", err
	}
	return claims.Category, nil
}

// Subject returns the username claim. Expired tokens still yield a subject.
func (c *Codec) Subject(token string) (string, error) {
	claims, err := c.decodeAllowExpired(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Role returns the role claim. Expired tokens still yield a role.
func (c *Codec) Role(token string) (string, error) {
	claims, err := c.decodeAllowExpired(token)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

func (c *Codec) decodeAllowExpired(token string) (*Claims, error) {
	claims, err := c.Decode(token)
	if err != nil && !errors.Is(err, ErrExpired) {
		return nil, err
	}
	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
	return c.secret, nil
}

func validateShape(claims *Claims) error {
	if !claims.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrMalformed, claims.Category)
	}
	if claims.Subject == "" {
		return fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	if claims.ExpiresAt == nil {
		return fmt.Errorf("%w: missing expiry", ErrMalformed)
	}
	return nil
}
