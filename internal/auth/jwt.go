// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/meetstack/backend/internal/clock"
	"github.com/carterperez-dev/meetstack/backend/internal/config"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/middleware"
)

// DefaultLeeway is the clock skew tolerated on exp, iat and nbf.
const DefaultLeeway = 30 * time.Second

// JWTManager verifies HS256 access tokens signed with the identity
// provider's shared secret. It never touches storage. It can also mint
// tokens with the same secret for the local development provider.
type JWTManager struct {
	key    jwk.Key
	config config.JWTConfig
	clock  clock.Clock
}

func NewJWTManager(cfg config.JWTConfig, clk clock.Clock) (*JWTManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import secret: %w", err)
	}

	if cfg.Leeway == 0 {
		cfg.Leeway = DefaultLeeway
	}
	if clk == nil {
		clk = clock.System()
	}

	return &JWTManager{key: key, config: cfg, clock: clk}, nil
}

func (m *JWTManager) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("verify token: %w", core.ErrMissingToken)
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), m.key),
		jwt.WithValidate(true),
		jwt.WithAudience(m.config.Audience),
		jwt.WithAcceptableSkew(m.config.Leeway),
		jwt.WithClock(jwt.ClockFunc(m.clock.Now)),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	expiresAt, ok := token.Expiration()
	if !ok {
		return nil, fmt.Errorf(
			"verify token: missing exp claim: %w",
			core.ErrTokenInvalid,
		)
	}

	claims := &middleware.AccessTokenClaims{
		Subject:   subject,
		ExpiresAt: expiresAt,
	}

	if issuedAt, ok := token.IssuedAt(); ok {
		claims.IssuedAt = issuedAt
	}

	var email string
	if err := token.Get("email", &email); err == nil {
		claims.Email = email
	}

	var role string
	if err := token.Get("role", &role); err == nil {
		claims.Role = role
	}

	return claims, nil
}

// CreateAccessToken mints a provider shaped token for subject.
func (m *JWTManager) CreateAccessToken(subject, email string) (string, time.Time, error) {
	now := m.clock.Now()
	expiresAt := now.Add(m.config.AccessTokenExpire)

	builder := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(subject).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim("role", "authenticated")

	if email != "" {
		builder = builder.Claim("email", email)
	}

	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return string(signed), expiresAt, nil
}

func isTokenExpiredError(err error) bool {
	return errors.Is(err, jwt.TokenExpiredError())
}
