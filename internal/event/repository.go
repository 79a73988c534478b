// AngelaMos | 2026
// repository.go

package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

const membershipUniqueConstraint = "event_memberships_event_profile_role_key"

type Repository interface {
	// Create inserts e unless its slug is taken, reporting whether a row
	// was written. A taken slug does not abort the surrounding transaction.
	Create(ctx context.Context, e *Event) (bool, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, e *Event) error
	ListForProfile(ctx context.Context, profileID string) ([]Event, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)

	AddMembership(ctx context.Context, m *Membership) error
	HasMembership(ctx context.Context, eventID, profileID string, role Role) (bool, error)
	RolesFor(ctx context.Context, eventID, profileID string) ([]Role, error)
	CountByRole(ctx context.Context, profileID string, role Role) (int, error)
	ListMembers(ctx context.Context, eventID string) ([]Member, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const eventColumns = `e.id, e.name, e.slug, e.subdomain, e.description, e.venue,
	e.start_at, e.end_at, e.timezone, e.banner, e.status, e.created_at, e.updated_at`

func (r *repository) Create(ctx context.Context, e *Event) (bool, error) {
	query := `
		INSERT INTO events (
			id, name, slug, subdomain, description, venue,
			start_at, end_at, timezone, banner, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (slug) DO NOTHING
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		e.ID,
		e.Name,
		e.Slug,
		e.Subdomain,
		e.Description,
		e.Venue,
		e.StartAt,
		e.EndAt,
		e.Timezone,
		e.Banner,
		e.Status,
	).Scan(&e.CreatedAt, &e.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		if _, ok := core.IsUniqueViolation(err); ok {
			return false, core.DuplicateError("subdomain")
		}
		return false, fmt.Errorf("create event: %w", err)
	}

	return true, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`

	var e Event
	err := core.Conn(ctx, r.db).GetContext(ctx, &e, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get event: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	return &e, nil
}

func (r *repository) Update(ctx context.Context, e *Event) error {
	query := `
		UPDATE events
		SET name = $2, subdomain = $3, description = $4, venue = $5,
		    start_at = $6, end_at = $7, timezone = $8, banner = $9,
		    status = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &e.UpdatedAt, query,
		e.ID,
		e.Name,
		e.Subdomain,
		e.Description,
		e.Venue,
		e.StartAt,
		e.EndAt,
		e.Timezone,
		e.Banner,
		e.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update event: %w", core.ErrNotFound)
	}
	if err != nil {
		if _, ok := core.IsUniqueViolation(err); ok {
			return core.DuplicateError("subdomain")
		}
		return fmt.Errorf("update event: %w", err)
	}

	return nil
}

func (r *repository) ListForProfile(ctx context.Context, profileID string) ([]Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE EXISTS (
			SELECT 1 FROM event_memberships m
			WHERE m.event_id = e.id AND m.profile_id = $1
		)
		ORDER BY e.created_at DESC, e.id`

	var events []Event
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &events, query, profileID); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return events, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}

	query := `SELECT status, COUNT(*) AS count FROM events GROUP BY status`
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	counts := make(map[Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

func (r *repository) AddMembership(ctx context.Context, m *Membership) error {
	query := `
		INSERT INTO event_memberships (id, event_id, profile_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &m.CreatedAt, query,
		m.ID,
		m.EventID,
		m.ProfileID,
		m.Role,
	)
	if err != nil {
		if constraint, ok := core.IsUniqueViolation(err); ok &&
			constraint == membershipUniqueConstraint {
			return fmt.Errorf("add membership: %w", core.ErrDuplicateMembership)
		}
		return fmt.Errorf("add membership: %w", err)
	}

	return nil
}

func (r *repository) HasMembership(
	ctx context.Context,
	eventID, profileID string,
	role Role,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM event_memberships
			WHERE event_id = $1 AND profile_id = $2 AND role = $3
		)`

	var exists bool
	err := core.Conn(ctx, r.db).GetContext(ctx, &exists, query, eventID, profileID, role)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}

	return exists, nil
}

func (r *repository) RolesFor(ctx context.Context, eventID, profileID string) ([]Role, error) {
	query := `
		SELECT role FROM event_memberships
		WHERE event_id = $1 AND profile_id = $2
		ORDER BY role`

	var roles []Role
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &roles, query, eventID, profileID); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

func (r *repository) CountByRole(ctx context.Context, profileID string, role Role) (int, error) {
	query := `SELECT COUNT(*) FROM event_memberships WHERE profile_id = $1 AND role = $2`

	var count int
	if err := core.Conn(ctx, r.db).GetContext(ctx, &count, query, profileID, role); err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}

	return count, nil
}

func (r *repository) ListMembers(ctx context.Context, eventID string) ([]Member, error) {
	query := `
		SELECT m.id, m.event_id, m.profile_id, m.role, m.created_at,
		       p.email, p.full_name
		FROM event_memberships m
		JOIN profiles p ON p.id = m.profile_id
		WHERE m.event_id = $1
		ORDER BY m.created_at, m.role`

	var members []Member
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &members, query, eventID); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}
