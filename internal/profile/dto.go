// AngelaMos | 2026
// dto.go

package profile

import (
	"time"
)

type UpdateProfileRequest struct {
	FullName  *string `json:"full_name,omitempty" validate:"omitempty,max=255"`
	Photo     *string `json:"photo,omitempty"     validate:"omitempty,url,max=500"`
	Country   *string `json:"country,omitempty"   validate:"omitempty,max=100"`
	AboutMe   *string `json:"about_me,omitempty"  validate:"omitempty,max=5000"`
	Birthdate *string `json:"birthdate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Website   *string `json:"website,omitempty"   validate:"omitempty,url,max=200"`
}

type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Photo     string    `json:"photo"`
	Country   string    `json:"country"`
	AboutMe   string    `json:"about_me"`
	Birthdate string    `json:"birthdate,omitempty"`
	Website   string    `json:"website"`
	Status    string    `json:"status"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListProfilesParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Status   string `json:"status"`
}

func (p *ListProfilesParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListProfilesParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToProfileResponse(p *Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:        p.ID,
		Email:     p.EmailAddress(),
		FullName:  p.FullName,
		Photo:     p.Photo,
		Country:   p.Country,
		AboutMe:   p.AboutMe,
		Website:   p.Website,
		Status:    p.Status,
		IsStaff:   p.IsStaff,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Birthdate != nil {
		resp.Birthdate = p.Birthdate.Format(time.DateOnly)
	}
	return resp
}

func ToProfileResponseList(profiles []Profile) []ProfileResponse {
	responses := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		responses = append(responses, ToProfileResponse(&profiles[i]))
	}
	return responses
}
