// AngelaMos | 2026
// repository.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

const primaryKeyConstraint = "profiles_pkey"

// ErrSubjectExists reports an insert that hit an existing profile id. It
// still matches core.ErrDuplicateKey.
var ErrSubjectExists = fmt.Errorf("profile subject exists: %w", core.ErrDuplicateKey)

type Repository interface {
	InsertIfAbsent(ctx context.Context, p *Profile) (bool, error)
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	LockByID(ctx context.Context, id string) (*Profile, error)
	Activate(ctx context.Context, id string) error
	Update(ctx context.Context, p *Profile) error
	SetStatus(ctx context.Context, id, status string) error
	List(ctx context.Context, params ListProfilesParams) ([]Profile, int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const profileColumns = `
	id, email, password_hash, full_name, photo, country, about_me,
	birthdate, website, status, is_staff, created_at, updated_at`

// InsertIfAbsent relies on the primary key to stay idempotent under
// concurrent first requests for the same subject. It reports whether this
// call created the row.
func (r *repository) InsertIfAbsent(ctx context.Context, p *Profile) (bool, error) {
	query := `
		INSERT INTO profiles (id, email, password_hash, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	res, err := core.Conn(ctx, r.db).ExecContext(ctx, query,
		p.ID,
		p.Email,
		p.PasswordHash,
		p.Status,
	)
	if err != nil {
		if _, ok := core.IsUniqueViolation(err); ok {
			return false, fmt.Errorf("insert profile: %w", core.ErrDuplicateKey)
		}
		return false, fmt.Errorf("insert profile: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert profile: %w", err)
	}

	return n == 1, nil
}

func (r *repository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (id, email, password_hash, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		p.ID,
		p.Email,
		p.PasswordHash,
		p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if constraint, ok := core.IsUniqueViolation(err); ok {
			if constraint == primaryKeyConstraint {
				return fmt.Errorf("create profile: %w", ErrSubjectExists)
			}
			return fmt.Errorf("create profile: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create profile: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	var p Profile
	err := core.Conn(ctx, r.db).GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &p, nil
}

// LockByID must run inside a transaction. The row lock serializes every
// owner-count check for this profile.
func (r *repository) LockByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1 FOR UPDATE`

	var p Profile
	err := core.Conn(ctx, r.db).GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock profile: %w", err)
	}

	return &p, nil
}

func (r *repository) Activate(ctx context.Context, id string) error {
	query := `
		UPDATE profiles
		SET status = 'active', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	if _, err := core.Conn(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("activate profile: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $2, photo = $3, country = $4, about_me = $5,
		    birthdate = $6, website = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &p.UpdatedAt, query,
		p.ID,
		p.FullName,
		p.Photo,
		p.Country,
		p.AboutMe,
		p.Birthdate,
		p.Website,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

func (r *repository) SetStatus(ctx context.Context, id, status string) error {
	query := `UPDATE profiles SET status = $2, updated_at = NOW() WHERE id = $1`

	res, err := core.Conn(ctx, r.db).ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("set profile status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set profile status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set profile status: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListProfilesParams,
) ([]Profile, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR full_name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM profiles WHERE " + whereClause
	if err := core.Conn(ctx, r.db).GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM profiles
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		profileColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var profiles []Profile
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	return profiles, total, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}

	query := `SELECT status, COUNT(*) AS count FROM profiles GROUP BY status`
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count profiles by status: %w", err)
	}

	counts := map[string]int{
		StatusPending:   0,
		StatusActive:    0,
		StatusSuspended: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
