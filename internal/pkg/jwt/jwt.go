package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is applied when no positive TTL is configured or requested.
const DefaultTTL = time.Hour

// MinSecretLength is the minimum HS512 key size in bytes.
const MinSecretLength = 64

var (
	// ErrInvalidSigningMethod is returned when the token is not signed with HS512.
	ErrInvalidSigningMethod = errors.New("jwt: invalid signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("jwt: HS512 signing key must be at least 64 bytes")

	// ErrTokenExpired is returned when the token is past its expiry.
	ErrTokenExpired = errors.New("jwt: token has expired")

	// ErrInvalidToken is returned for a malformed token, a bad signature or a
	// claim mismatch.
	ErrInvalidToken = errors.New("jwt: invalid token")
)

// JWT issues and validates session tokens.
type JWT interface {
	// Generate creates a token valid for the configured TTL.
	Generate(uid int64, email string) (string, error)
	// GenerateTTL creates a token valid for ttl, or DefaultTTL when ttl <= 0.
	GenerateTTL(uid int64, email string, ttl time.Duration) (string, error)
	// Verify parses and validates the token and returns its claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// TTL is the token lifetime, DefaultTTL when zero.
	TTL time.Duration
	// Clock provides the current time.
	Clock clocker
	// UUID generates token ids.
	UUID generator
}

// Claims wraps the registered claims with the authenticated user.
type Claims struct {
	jwt.RegisteredClaims
	// UserID is the authenticated user id.
	UserID int64 `json:"user_id,string"`
	// UserEmail is the authenticated user email.
	UserEmail string `json:"user_email"`
}

// GetAuth returns the claims stored in ctx, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores claims in ctx.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
