// AngelaMos | 2026
// local_test.go

package identity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/meetstack/backend/internal/auth"
	"github.com/carterperez-dev/meetstack/backend/internal/clock"
	"github.com/carterperez-dev/meetstack/backend/internal/config"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

func (m *memAccounts) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
}

func (m *memAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[id].PasswordHash = hash
	return nil
}

func (m *memAccounts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
	return nil
}

func newLocal(t *testing.T) (*LocalProvider, *memAccounts, *auth.JWTManager) {
	t.Helper()
	jwtm, err := auth.NewJWTManager(config.JWTConfig{
		Secret:            "local-development-secret-0123456789",
		Audience:          "authenticated",
		Issuer:            "meetstack",
		AccessTokenExpire: time.Hour,
	}, clock.System())
	require.NoError(t, err)

	repo := &memAccounts{accounts: map[string]*Account{}}
	return NewLocalProvider(repo, jwtm), repo, jwtm
}

func TestLocalProvider_SignUpIssuesVerifiableToken(t *testing.T) {
	p, repo, jwtm := newLocal(t)
	ctx := context.Background()

	session, err := p.SignUp(ctx, "Dev@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", session.Email)
	require.Contains(t, repo.accounts, session.Subject)
	assert.NotEqual(t, "password123", repo.accounts[session.Subject].PasswordHash)

	claims, err := jwtm.VerifyAccessToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.Subject, claims.Subject)

	_, err = p.SignUp(ctx, "dev@example.com", "password456")
	assert.ErrorIs(t, err, auth.ErrAlreadyRegistered)
}

func TestLocalProvider_SignIn(t *testing.T) {
	p, _, _ := newLocal(t)
	ctx := context.Background()

	created, err := p.SignUp(ctx, "dev@example.com", "password123")
	require.NoError(t, err)

	session, err := p.SignIn(ctx, "dev@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.Subject, session.Subject)

	_, err = p.SignIn(ctx, "dev@example.com", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLocalProvider_DeleteUser(t *testing.T) {
	p, repo, _ := newLocal(t)
	ctx := context.Background()

	session, err := p.SignUp(ctx, "gone@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, p.DeleteUser(ctx, session.Subject))
	assert.Empty(t, repo.accounts)
}
