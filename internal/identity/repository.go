// AngelaMos | 2026
// repository.go

package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

// Account is a credential record owned by the local provider.
type Account struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO identity_accounts (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &a.CreatedAt, query, a.ID, a.Email, a.PasswordHash)
	if err != nil {
		if _, ok := core.IsUniqueViolation(err); ok {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM identity_accounts
		WHERE email = $1`

	var a Account
	err := core.Conn(ctx, r.db).GetContext(ctx, &a, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &a, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE identity_accounts SET password_hash = $2 WHERE id = $1`

	if _, err := core.Conn(ctx, r.db).ExecContext(ctx, query, id, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM identity_accounts WHERE id = $1`

	if _, err := core.Conn(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	return nil
}
