// AngelaMos | 2026
// local.go

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/meetstack/backend/internal/auth"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

// TokenIssuer signs access tokens that the verifier accepts.
type TokenIssuer interface {
	CreateAccessToken(subject, email string) (string, time.Time, error)
}

// LocalProvider stands in for the hosted provider during development. It
// stores argon2id hashes in identity_accounts and signs tokens with the
// same shared secret the verifier checks.
type LocalProvider struct {
	repo   Repository
	issuer TokenIssuer
}

func NewLocalProvider(repo Repository, issuer TokenIssuer) *LocalProvider {
	return &LocalProvider{repo: repo, issuer: issuer}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	account := &Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}

	if err := p.repo.Create(ctx, account); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("signup: %w", auth.ErrAlreadyRegistered)
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	return p.session(account)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := p.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			_, _, _ = checkPassword(password, decoyHash) //nolint:errcheck // equalizes timing
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	match, stale, err := checkPassword(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return nil, auth.ErrInvalidCredentials
	}

	if stale {
		if upgraded, hashErr := hashPassword(password); hashErr == nil {
			//nolint:errcheck // a failed upgrade keeps the old hash working
			_ = p.repo.UpdatePassword(ctx, account.ID, upgraded)
		}
	}

	return p.session(account)
}

func (p *LocalProvider) DeleteUser(ctx context.Context, subject string) error {
	return p.repo.Delete(ctx, subject)
}

func (p *LocalProvider) session(a *Account) (*auth.Session, error) {
	token, expiresAt, err := p.issuer.CreateAccessToken(a.ID, a.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &auth.Session{
		Subject:     a.ID,
		Email:       a.Email,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}
