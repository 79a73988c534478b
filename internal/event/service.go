// AngelaMos | 2026
// service.go

package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/meetstack/backend/internal/broker"
	"github.com/carterperez-dev/meetstack/backend/internal/clock"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/metrics"
)

const slugAttempts = 5

// ProfileLocker takes the per-profile row lock that serializes ownership
// counting. It reports core.ErrNotFound for unknown profiles.
type ProfileLocker interface {
	Lock(ctx context.Context, id string) error
}

type Service struct {
	repo       Repository
	tx         core.Transactor
	profiles   ProfileLocker
	publisher  broker.Publisher
	metrics    *metrics.Metrics
	clock      clock.Clock
	ownerLimit int
}

type ServiceConfig struct {
	Repo       Repository
	Tx         core.Transactor
	Profiles   ProfileLocker
	Publisher  broker.Publisher
	Metrics    *metrics.Metrics
	Clock      clock.Clock
	OwnerLimit int
}

func NewService(cfg ServiceConfig) *Service {
	pub := cfg.Publisher
	if pub == nil {
		pub = broker.Noop{}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System()
	}

	return &Service{
		repo:       cfg.Repo,
		tx:         cfg.Tx,
		profiles:   cfg.Profiles,
		publisher:  pub,
		metrics:    cfg.Metrics,
		clock:      clk,
		ownerLimit: cfg.OwnerLimit,
	}
}

// Create stores a new event owned by profileID. The owner count and both
// inserts happen under the caller's profile row lock, so concurrent
// requests cannot push a profile past the ownership limit.
func (s *Service) Create(
	ctx context.Context,
	profileID string,
	req CreateEventRequest,
) (*Event, error) {
	if req.StartAt != nil && req.EndAt != nil && req.EndAt.Before(*req.StartAt) {
		return nil, core.ValidationError("end_datetime must not be before start_datetime")
	}

	e := &Event{
		ID:          uuid.NewString(),
		Name:        core.SanitizePlainText(req.Name),
		Subdomain:   normalizeSubdomain(req.Subdomain),
		Description: core.SanitizeRichText(req.Description),
		Venue:       core.SanitizePlainText(req.Venue),
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Timezone:    req.Timezone,
		Banner:      strings.TrimSpace(req.Banner),
		Status:      StatusDraft,
	}
	if e.Name == "" {
		return nil, core.ValidationError("name is required")
	}
	if e.Timezone == "" {
		e.Timezone = "UTC"
	}

	owner := &Membership{
		ID:        uuid.NewString(),
		EventID:   e.ID,
		ProfileID: profileID,
		Role:      RoleOwner,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.profiles.Lock(ctx, profileID); err != nil {
			return err
		}

		owned, err := s.repo.CountByRole(ctx, profileID, RoleOwner)
		if err != nil {
			return err
		}
		if owned >= s.ownerLimit {
			return core.LimitExceededError(s.ownerLimit)
		}

		if err := s.insertWithUniqueSlug(ctx, e); err != nil {
			return err
		}

		return s.repo.AddMembership(ctx, owner)
	})
	if err != nil {
		if errors.Is(err, core.ErrLimitExceeded) {
			s.metrics.OwnerLimitRejected()
		}
		return nil, err
	}

	s.metrics.EventCreated()
	s.metrics.MembershipCreated(string(RoleOwner))
	s.publish(ctx, broker.TypeEventCreated, map[string]any{
		"event_id":   e.ID,
		"slug":       e.Slug,
		"owner_id":   profileID,
		"event_name": e.Name,
	})

	return e, nil
}

func (s *Service) insertWithUniqueSlug(ctx context.Context, e *Event) error {
	base := Slugify(e.Name)
	e.Slug = base

	for range slugAttempts {
		inserted, err := s.repo.Create(ctx, e)
		if err != nil {
			return err
		}
		if inserted {
			return nil
		}
		e.Slug = base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}

	return fmt.Errorf("create event: no free slug for %q", base)
}

// Join adds the attendee membership. Any other role the caller holds on the
// event does not count as a duplicate.
func (s *Service) Join(ctx context.Context, eventID, profileID string) (*Membership, error) {
	m := &Membership{
		ID:        uuid.NewString(),
		EventID:   eventID,
		ProfileID: profileID,
		Role:      RoleAttendee,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if !e.Status.Open() {
			return core.ValidationError("event is not open for registration")
		}

		exists, err := s.repo.HasMembership(ctx, eventID, profileID, RoleAttendee)
		if err != nil {
			return err
		}
		if exists {
			return core.ErrDuplicateMembership
		}

		return s.repo.AddMembership(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MembershipCreated(string(RoleAttendee))
	s.publishMembership(ctx, m)

	return m, nil
}

func (s *Service) ListForProfile(ctx context.Context, profileID string) ([]Event, error) {
	return s.repo.ListForProfile(ctx, profileID)
}

// Get hides unpublished events from profiles holding no role on them.
func (s *Service) Get(ctx context.Context, eventID, profileID string) (*Event, error) {
	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if e.Status == StatusPublished {
		return e, nil
	}

	roles, err := s.repo.RolesFor(ctx, eventID, profileID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("get event: %w", core.ErrNotFound)
	}

	return e, nil
}

func (s *Service) Update(
	ctx context.Context,
	eventID, profileID string,
	req UpdateEventRequest,
) (*Event, error) {
	var e *Event

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.repo.GetByID(ctx, eventID)
		if err != nil {
			return err
		}

		if err := s.requireManager(ctx, eventID, profileID); err != nil {
			return err
		}

		if err := applyUpdate(e, req); err != nil {
			return err
		}

		return s.repo.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	return e, nil
}

// AddMember grants a non-owner role. Only owners and admins may do this.
func (s *Service) AddMember(
	ctx context.Context,
	eventID, actorID string,
	req AddMemberRequest,
) (*Membership, error) {
	role := Role(req.Role)
	if !role.Valid() || role == RoleOwner {
		return nil, core.ValidationError("role cannot be granted")
	}

	m := &Membership{
		ID:        uuid.NewString(),
		EventID:   eventID,
		ProfileID: req.ProfileID,
		Role:      role,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, eventID); err != nil {
			return err
		}

		if err := s.requireManager(ctx, eventID, actorID); err != nil {
			return err
		}

		if err := s.profiles.Lock(ctx, req.ProfileID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.NotFoundError("profile")
			}
			return err
		}

		return s.repo.AddMembership(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MembershipCreated(string(role))
	s.publishMembership(ctx, m)

	return m, nil
}

func (s *Service) ListMembers(ctx context.Context, eventID, actorID string) ([]Member, error) {
	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	roles, err := s.repo.RolesFor(ctx, eventID, actorID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, core.ForbiddenError("only members can see the member list")
	}

	return s.repo.ListMembers(ctx, eventID)
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) requireManager(ctx context.Context, eventID, profileID string) error {
	roles, err := s.repo.RolesFor(ctx, eventID, profileID)
	if err != nil {
		return err
	}

	for _, r := range roles {
		if r.CanManage() {
			return nil
		}
	}

	return core.ForbiddenError("only event owners and admins can do this")
}

func (s *Service) publishMembership(ctx context.Context, m *Membership) {
	s.publish(ctx, broker.TypeMembershipCreated, map[string]any{
		"membership_id": m.ID,
		"event_id":      m.EventID,
		"profile_id":    m.ProfileID,
		"role":          m.Role,
	})
}

func (s *Service) publish(ctx context.Context, eventType string, data any) {
	msg := broker.NewMessage(eventType, s.clock.Now(), data)
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.metrics.PublishFailed(eventType)
		slog.WarnContext(ctx, "domain event not published",
			"type", eventType,
			"error", err,
		)
	}
}

func applyUpdate(e *Event, req UpdateEventRequest) error {
	if req.Name != nil {
		name := core.SanitizePlainText(*req.Name)
		if name == "" {
			return core.ValidationError("name must not be empty")
		}
		e.Name = name
	}
	if req.Subdomain != nil {
		e.Subdomain = normalizeSubdomain(req.Subdomain)
	}
	if req.Description != nil {
		e.Description = core.SanitizeRichText(*req.Description)
	}
	if req.Venue != nil {
		e.Venue = core.SanitizePlainText(*req.Venue)
	}
	if req.StartAt != nil {
		e.StartAt = req.StartAt
	}
	if req.EndAt != nil {
		e.EndAt = req.EndAt
	}
	if req.Timezone != nil {
		e.Timezone = *req.Timezone
	}
	if req.Banner != nil {
		e.Banner = strings.TrimSpace(*req.Banner)
	}

	if e.StartAt != nil && e.EndAt != nil && e.EndAt.Before(*e.StartAt) {
		return core.ValidationError("end_datetime must not be before start_datetime")
	}

	if req.Status != nil {
		to := Status(*req.Status)
		if !e.Status.CanTransition(to) {
			return core.ValidationError(
				fmt.Sprintf("cannot move event from %s to %s", e.Status, to),
			)
		}
		e.Status = to
	}

	return nil
}

func normalizeSubdomain(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	if v == "" {
		return nil
	}
	return &v
}
