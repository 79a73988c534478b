// AngelaMos | 2026
// entity.go

package profile

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Profile mirrors an identity provider account. ID is the provider's
// subject identifier and never changes.
type Profile struct {
	ID           string     `db:"id"`
	Email        *string    `db:"email"`
	PasswordHash string     `db:"password_hash"`
	FullName     string     `db:"full_name"`
	Photo        string     `db:"photo"`
	Country      string     `db:"country"`
	AboutMe      string     `db:"about_me"`
	Birthdate    *time.Time `db:"birthdate"`
	Website      string     `db:"website"`
	Status       string     `db:"status"`
	IsStaff      bool       `db:"is_staff"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (p *Profile) IsSuspended() bool {
	return p.Status == StatusSuspended
}

func (p *Profile) EmailAddress() string {
	if p.Email == nil {
		return ""
	}
	return *p.Email
}
