// AngelaMos | 2026
// entity.go

package event

import (
	"time"
)

type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleSpeaker  Role = "speaker"
	RoleAttendee Role = "attendee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleStaff, RoleSpeaker, RoleAttendee:
		return true
	}
	return false
}

// CanManage reports whether the role may edit the event and its members.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// CanTransition allows draft -> published -> finished, and any state that
// is not finished may be cancelled.
func (s Status) CanTransition(to Status) bool {
	if s == to {
		return true
	}
	switch to {
	case StatusPublished:
		return s == StatusDraft
	case StatusFinished:
		return s == StatusPublished
	case StatusCancelled:
		return s != StatusFinished
	}
	return false
}

func (s Status) Open() bool {
	return s == StatusDraft || s == StatusPublished
}

type Event struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Slug        string     `db:"slug"`
	Subdomain   *string    `db:"subdomain"`
	Description string     `db:"description"`
	Venue       string     `db:"venue"`
	StartAt     *time.Time `db:"start_at"`
	EndAt       *time.Time `db:"end_at"`
	Timezone    string     `db:"timezone"`
	Banner      string     `db:"banner"`
	Status      Status     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

type Membership struct {
	ID        string    `db:"id"`
	EventID   string    `db:"event_id"`
	ProfileID string    `db:"profile_id"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// Member is a membership joined with the holder's profile.
type Member struct {
	Membership
	Email    *string `db:"email"`
	FullName string  `db:"full_name"`
}
