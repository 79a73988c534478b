// AngelaMos | 2026
// context.go

package middleware

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	ProfileIDKey contextKey = "profile_id"
	PrincipalKey contextKey = "principal"
	ClaimsKey    contextKey = "jwt_claims"
	TokenKey     contextKey = "raw_token"
)
