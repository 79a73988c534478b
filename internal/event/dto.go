// AngelaMos | 2026
// dto.go

package event

import (
	"time"
)

type CreateEventRequest struct {
	Name        string     `json:"name"        validate:"required,min=1,max=255"`
	Subdomain   *string    `json:"subdomain"   validate:"omitempty,hostname_rfc1123,max=100"`
	Description string     `json:"description" validate:"max=10000"`
	Venue       string     `json:"venue"       validate:"max=500"`
	StartAt     *time.Time `json:"start_datetime"`
	EndAt       *time.Time `json:"end_datetime"`
	Timezone    string     `json:"timezone"    validate:"omitempty,timezone"`
	Banner      string     `json:"banner"      validate:"omitempty,url,max=255"`
}

type UpdateEventRequest struct {
	Name        *string    `json:"name,omitempty"        validate:"omitempty,min=1,max=255"`
	Subdomain   *string    `json:"subdomain,omitempty"   validate:"omitempty,hostname_rfc1123,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Venue       *string    `json:"venue,omitempty"       validate:"omitempty,max=500"`
	StartAt     *time.Time `json:"start_datetime,omitempty"`
	EndAt       *time.Time `json:"end_datetime,omitempty"`
	Timezone    *string    `json:"timezone,omitempty"    validate:"omitempty,timezone"`
	Banner      *string    `json:"banner,omitempty"      validate:"omitempty,url,max=255"`
	Status      *string    `json:"status,omitempty"      validate:"omitempty,oneof=draft published finished cancelled"`
}

type AddMemberRequest struct {
	ProfileID string `json:"profile_id" validate:"required,max=255"`
	Role      string `json:"role"       validate:"required,oneof=admin staff speaker attendee"`
}

type EventResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Subdomain   *string    `json:"subdomain"`
	Description string     `json:"description"`
	Venue       string     `json:"venue"`
	Status      Status     `json:"status"`
	StartAt     *time.Time `json:"start_datetime"`
	EndAt       *time.Time `json:"end_datetime"`
	Timezone    string     `json:"timezone"`
	Banner      string     `json:"banner"`
	CreatedAt   time.Time  `json:"created_at"`
}

type MembershipResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event"`
	ProfileID string    `json:"user"`
	Role      Role      `json:"role"`
	Email     string    `json:"user_email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func ToEventResponse(e *Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Slug:        e.Slug,
		Subdomain:   e.Subdomain,
		Description: e.Description,
		Venue:       e.Venue,
		Status:      e.Status,
		StartAt:     e.StartAt,
		EndAt:       e.EndAt,
		Timezone:    e.Timezone,
		Banner:      e.Banner,
		CreatedAt:   e.CreatedAt,
	}
}

func ToEventResponseList(events []Event) []EventResponse {
	out := make([]EventResponse, len(events))
	for i := range events {
		out[i] = ToEventResponse(&events[i])
	}
	return out
}

func ToMembershipResponse(m *Membership) MembershipResponse {
	return MembershipResponse{
		ID:        m.ID,
		EventID:   m.EventID,
		ProfileID: m.ProfileID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}

func ToMemberResponseList(members []Member) []MembershipResponse {
	out := make([]MembershipResponse, len(members))
	for i := range members {
		resp := ToMembershipResponse(&members[i].Membership)
		if members[i].Email != nil {
			resp.Email = *members[i].Email
		}
		resp.FullName = members[i].FullName
		out[i] = resp
	}
	return out
}
