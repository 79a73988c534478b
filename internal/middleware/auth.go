// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// AccessTokenClaims is the verified subset of a provider issued token.
type AccessTokenClaims struct {
	Subject   string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal is the local profile behind a verified token.
type Principal struct {
	ProfileID string
	Email     string
	IsStaff   bool
	Suspended bool
}

// ProfileSyncer maps verified claims onto a local profile, creating it on
// first sight.
type ProfileSyncer interface {
	SyncPrincipal(ctx context.Context, claims *AccessTokenClaims) (*Principal, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

func Authenticator(
	verifier TokenVerifier,
	syncer ProfileSyncer,
	revocations RevocationChecker,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractToken(r)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			if revocations != nil {
				revoked, revErr := revocations.IsRevoked(r.Context(), token)
				if revErr != nil {
					slog.WarnContext(r.Context(), "revocation check failed, allowing token",
						"error", revErr,
						"request_id", GetRequestID(r.Context()),
					)
				}
				if revoked {
					core.JSONError(w, core.TokenRevokedError())
					return
				}
			}

			principal, err := syncer.SyncPrincipal(r.Context(), claims)
			if err != nil {
				slog.ErrorContext(r.Context(), "profile sync failed",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				core.JSONError(w, err)
				return
			}

			if principal.Suspended {
				core.JSONError(w, core.ForbiddenError("account suspended"))
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ProfileIDKey, principal.ProfileID)
			ctx = context.WithValue(ctx, PrincipalKey, principal)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			ctx = context.WithValue(ctx, TokenKey, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r.Context())

		if principal == nil {
			core.JSONError(w, core.UnauthorizedError("authentication required"))
			return
		}

		if !principal.IsStaff {
			core.JSONError(w, core.ForbiddenError("staff access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ExtractToken reads a bearer token from the Authorization header. A
// missing header yields core.ErrMissingToken; a malformed one yields a 401
// AppError describing the defect.
func ExtractToken(r *http.Request) (string, error) {
	values := r.Header.Values("Authorization")
	if len(values) == 0 || values[0] == "" {
		return "", core.ErrMissingToken
	}
	if len(values) > 1 {
		return "", core.UnauthorizedError("invalid token header: multiple authorization headers")
	}

	header := values[0]
	if !utf8.ValidString(header) {
		return "", core.UnauthorizedError("invalid token header: token contains invalid characters")
	}

	parts := strings.Fields(header)
	if len(parts) == 0 {
		return "", core.ErrMissingToken
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return "", core.UnauthorizedError("invalid token header: bearer scheme required")
	}

	switch len(parts) {
	case 1:
		return "", core.UnauthorizedError("invalid token header: no credentials provided")
	case 2:
		return parts[1], nil
	default:
		return "", core.UnauthorizedError("invalid token header: token must not contain spaces")
	}
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrMissingToken):
		core.JSONError(w, core.UnauthorizedError("missing authorization token"))
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func GetProfileID(ctx context.Context) string {
	if id, ok := ctx.Value(ProfileIDKey).(string); ok {
		return id
	}
	return ""
}

func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}

func GetToken(ctx context.Context) string {
	if token, ok := ctx.Value(TokenKey).(string); ok {
		return token
	}
	return ""
}

// WithPrincipal stores a principal on ctx the way Authenticator does.
// Handler tests use it to bypass token verification.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	ctx = context.WithValue(ctx, ProfileIDKey, p.ProfileID)
	return context.WithValue(ctx, PrincipalKey, p)
}
