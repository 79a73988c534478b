// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/middleware"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Sync returns the local profile for a verified subject, creating an active
// one on first sight. Every storage failure surfaces as *core.ProfileSyncError.
func (s *Service) Sync(ctx context.Context, subject, email string) (*Profile, error) {
	if subject == "" {
		return nil, &core.ProfileSyncError{Err: errors.New("empty subject")}
	}

	fresh, err := newProfile(subject, email, StatusActive)
	if err != nil {
		return nil, &core.ProfileSyncError{Subject: subject, Err: err}
	}

	if _, err := s.repo.InsertIfAbsent(ctx, fresh); err != nil {
		return nil, &core.ProfileSyncError{Subject: subject, Err: err}
	}

	p, err := s.repo.GetByID(ctx, subject)
	if err != nil {
		return nil, &core.ProfileSyncError{Subject: subject, Err: err}
	}

	if p.Status == StatusPending {
		if err := s.repo.Activate(ctx, subject); err != nil {
			return nil, &core.ProfileSyncError{Subject: subject, Err: err}
		}
		p.Status = StatusActive
	}

	return p, nil
}

// SyncPrincipal adapts Sync to the authenticator.
func (s *Service) SyncPrincipal(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) (*middleware.Principal, error) {
	p, err := s.Sync(ctx, claims.Subject, claims.Email)
	if err != nil {
		return nil, err
	}

	return &middleware.Principal{
		ProfileID: p.ID,
		Email:     p.EmailAddress(),
		IsStaff:   p.IsStaff,
		Suspended: p.IsSuspended(),
	}, nil
}

// CreateRegistered stores the pending profile for a fresh provider signup.
// It runs inside the registration transaction.
func (s *Service) CreateRegistered(ctx context.Context, subject, email string) (*Profile, error) {
	p, err := newProfile(subject, email, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("create registered profile: %w", err)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Lock takes the row lock used to serialize per-profile limits.
func (s *Service) Lock(ctx context.Context, id string) error {
	_, err := s.repo.LockByID(ctx, id)
	return err
}

func (s *Service) GetMe(ctx context.Context, id string) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	id string,
	req UpdateProfileRequest,
) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		p.FullName = core.SanitizePlainText(*req.FullName)
	}
	if req.Photo != nil {
		p.Photo = strings.TrimSpace(*req.Photo)
	}
	if req.Country != nil {
		p.Country = core.SanitizePlainText(*req.Country)
	}
	if req.AboutMe != nil {
		p.AboutMe = core.SanitizeRichText(*req.AboutMe)
	}
	if req.Website != nil {
		p.Website = strings.TrimSpace(*req.Website)
	}
	if req.Birthdate != nil {
		if *req.Birthdate == "" {
			p.Birthdate = nil
		} else {
			d, parseErr := time.Parse(time.DateOnly, *req.Birthdate)
			if parseErr != nil {
				return nil, core.ValidationError("birthdate must be YYYY-MM-DD")
			}
			p.Birthdate = &d
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) List(
	ctx context.Context,
	params ListProfilesParams,
) ([]Profile, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) SetStatus(ctx context.Context, id, status string) error {
	switch status {
	case StatusActive, StatusPending, StatusSuspended:
	default:
		return core.ValidationError("unknown profile status")
	}
	return s.repo.SetStatus(ctx, id, status)
}

func (s *Service) CountByStatus(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByStatus(ctx)
}

func newProfile(subject, email, status string) (*Profile, error) {
	marker, err := core.UnusablePassword()
	if err != nil {
		return nil, err
	}

	p := &Profile{
		ID:           subject,
		Status:       status,
		PasswordHash: marker,
	}

	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		p.Email = &email
	}

	return p, nil
}
