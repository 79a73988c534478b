// AngelaMos | 2026
// entity.go

package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlreadyRegistered  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session is what the identity provider hands back after signup or login.
type Session struct {
	Subject     string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// IdentityProvider owns credentials. SignUp reports ErrAlreadyRegistered and
// SignIn reports ErrInvalidCredentials; any other error is an upstream fault.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	DeleteUser(ctx context.Context, subject string) error
}
