// Package token issues the signed identity tokens that authenticate every
// request against the gateway. The signing key and algorithm mirror the
// gateway's own token validation, so a locally issued token is accepted by
// all downstream services without a live login round-trip.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors returned by the token package.
var (
	// ErrInvalidConfig is returned when the issuer configuration is invalid.
	ErrInvalidConfig = errors.New("token: invalid configuration")
	// ErrSigningFailed is returned when token signing fails. This indicates a
	// broken precondition (bad key material), never a transient condition.
	ErrSigningFailed = errors.New("token: signing failed")
)

// Config holds the issuer configuration. It is read-only after process start;
// the issuer never mutates it.
type Config struct {
	// Secret is the symmetric HMAC signing key shared with the gateway.
	Secret string

	// TTL is how long issued tokens remain valid.
	// Default: 10h
	TTL time.Duration
}

// DefaultConfig returns the configuration matching the gateway's defaults.
func DefaultConfig() Config {
	return Config{
		Secret: "secret",
		TTL:    10 * time.Hour,
	}
}

// Issuer builds self-contained signed tokens. An Issuer is immutable and safe
// for concurrent use.
type Issuer struct {
	secret []byte
	ttl    time.Duration

	// For testing
	nowFunc func() time.Time
}

// NewIssuer creates a new token issuer from the given configuration.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrInvalidConfig)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}

	return &Issuer{
		secret:  []byte(cfg.Secret),
		ttl:     cfg.TTL,
		nowFunc: time.Now,
	}, nil
}

// Issue builds an HS256-signed token carrying the subject, an issued-at
// timestamp, and an expiry of issued-at plus the configured TTL.
func (i *Issuer) Issue(subject string) (string, error) {
	return i.IssueWithClaims(subject, nil)
}

// IssueWithClaims is like Issue but merges the given custom claims into the
// token. Custom claims cannot override the registered sub/iat/exp claims.
func (i *Issuer) IssueWithClaims(subject string, custom map[string]any) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", ErrInvalidConfig)
	}

	now := i.nowFunc()
	claims := jwt.MapClaims{}
	for k, v := range custom {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(i.ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	return signed, nil
}

// AuthorizationHeader issues a token for the subject and returns the value
// for the Authorization header, e.g. "Bearer eyJhbGc...".
func (i *Issuer) AuthorizationHeader(subject string) (string, error) {
	tok, err := i.Issue(subject)
	if err != nil {
		return "", err
	}
	return "Bearer " + tok, nil
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// WithNowFunc sets a custom time function for testing.
// IMPORTANT: This method is NOT thread-safe. It must be called during
// initialization before any concurrent operations begin.
func (i *Issuer) WithNowFunc(fn func() time.Time) *Issuer {
	i.nowFunc = fn
	return i
}
