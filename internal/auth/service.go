// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/meetstack/backend/internal/broker"
	"github.com/carterperez-dev/meetstack/backend/internal/clock"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/metrics"
	"github.com/carterperez-dev/meetstack/backend/internal/profile"
	"github.com/carterperez-dev/meetstack/backend/internal/subscription"
)

// Registration states, recorded as span events in order.
const (
	stateReceived           = "registration.received"
	stateQuotaChecked       = "registration.quota_checked"
	stateExternalSignupDone = "registration.external_signup_done"
	stateProfileCreated     = "registration.local_profile_created"
	statePlanAssigned       = "registration.plan_assigned"
	stateQuotaIncremented   = "registration.quota_incremented"
	stateCommitted          = "registration.committed"
	stateCompensated        = "registration.compensated"
)

const compensationTimeout = 10 * time.Second

type ProfileRegistrar interface {
	CreateRegistered(ctx context.Context, subject, email string) (*profile.Profile, error)
	GetMe(ctx context.Context, id string) (*profile.Profile, error)
}

type PlanAssigner interface {
	AssignDefault(ctx context.Context, profileID string) (*subscription.Subscription, error)
}

type RegistrationQuota interface {
	Check(ctx context.Context) error
	Reserve(ctx context.Context) (int, error)
}

type Service struct {
	provider    IdentityProvider
	tx          core.Transactor
	profiles    ProfileRegistrar
	plans       PlanAssigner
	quota       RegistrationQuota
	revocations RevocationStore
	publisher   broker.Publisher
	metrics     *metrics.Metrics
	clock       clock.Clock
	leeway      time.Duration
}

type ServiceConfig struct {
	Provider    IdentityProvider
	Tx          core.Transactor
	Profiles    ProfileRegistrar
	Plans       PlanAssigner
	Quota       RegistrationQuota
	Revocations RevocationStore
	Publisher   broker.Publisher
	Metrics     *metrics.Metrics
	Clock       clock.Clock
	Leeway      time.Duration
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		provider:    cfg.Provider,
		tx:          cfg.Tx,
		profiles:    cfg.Profiles,
		plans:       cfg.Plans,
		quota:       cfg.Quota,
		revocations: cfg.Revocations,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		clock:       cfg.Clock,
		leeway:      cfg.Leeway,
	}

	if s.publisher == nil {
		s.publisher = broker.Noop{}
	}
	if s.clock == nil {
		s.clock = clock.System()
	}
	if s.leeway == 0 {
		s.leeway = DefaultLeeway
	}

	return s
}

func emailExistsError() *core.AppError {
	return core.NewAppError(
		ErrAlreadyRegistered,
		"a user with this email already exists",
		http.StatusBadRequest,
		"EMAIL_EXISTS",
	)
}

func invalidCredentialsError() *core.AppError {
	return core.NewAppError(
		ErrInvalidCredentials,
		"invalid email or password",
		http.StatusBadRequest,
		"INVALID_CREDENTIALS",
	)
}

// Register creates the provider account first, then the local profile,
// default subscription and quota slot in one transaction. If the local
// part fails the provider account is deleted again, unless it already had a
// profile.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.Register")
	defer span.End()

	core.AddSpanEvent(ctx, stateReceived)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.quota.Check(ctx); err != nil {
		if errors.Is(err, core.ErrQuotaExceeded) {
			s.metrics.QuotaRejected()
			s.metrics.Registration("quota_exceeded")
			return nil, core.QuotaExceededError()
		}
		s.metrics.Registration("error")
		return nil, err
	}
	core.AddSpanEvent(ctx, stateQuotaChecked)

	session, err := s.provider.SignUp(ctx, email, req.Password)
	if err != nil {
		core.SetSpanError(ctx, err)
		if errors.Is(err, ErrAlreadyRegistered) {
			s.metrics.Registration("email_exists")
			return nil, emailExistsError()
		}
		s.metrics.Registration("upstream_error")
		slog.WarnContext(ctx, "identity provider signup failed", "error", err)
		return nil, core.UpstreamError("")
	}
	core.AddSpanEvent(ctx, stateExternalSignupDone,
		attribute.String("profile.id", session.Subject),
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.profiles.CreateRegistered(ctx, session.Subject, email); err != nil {
			return err
		}
		core.AddSpanEvent(ctx, stateProfileCreated)

		if _, err := s.plans.AssignDefault(ctx, session.Subject); err != nil {
			return err
		}
		core.AddSpanEvent(ctx, statePlanAssigned)

		count, err := s.quota.Reserve(ctx)
		if err != nil {
			return err
		}
		core.AddSpanEvent(ctx, stateQuotaIncremented,
			attribute.Int("quota.count", count),
		)

		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		// A subject that already has a profile belongs to an earlier signup.
		if errors.Is(err, profile.ErrSubjectExists) {
			slog.WarnContext(ctx, "provider returned an already registered subject",
				"profile_id", session.Subject,
			)
		} else {
			s.compensate(ctx, session.Subject)
		}
		return nil, s.registrationFailure(ctx, err)
	}
	core.AddSpanEvent(ctx, stateCommitted)

	s.metrics.Registration("success")
	s.publish(ctx, broker.TypeProfileRegistered, map[string]any{
		"profile_id": session.Subject,
		"email":      email,
	})

	return &RegisterResponse{
		ProfileID:   session.Subject,
		AccessToken: session.AccessToken,
		Message:     "registered, please verify your email",
	}, nil
}

func (s *Service) registrationFailure(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, core.ErrQuotaExceeded):
		s.metrics.QuotaRejected()
		s.metrics.Registration("quota_exceeded")
		return core.QuotaExceededError()
	case errors.Is(err, core.ErrConfiguration):
		s.metrics.Registration("configuration_error")
		slog.ErrorContext(ctx, "registration misconfigured", "error", err)
		return core.ConfigurationError()
	case errors.Is(err, core.ErrDuplicateKey):
		s.metrics.Registration("email_exists")
		return emailExistsError()
	default:
		s.metrics.Registration("error")
		slog.ErrorContext(ctx, "local registration failed", "error", err)
		return core.UpstreamError("registration could not be completed")
	}
}

// compensate removes the provider account of a registration whose local
// half failed. It is best effort and outlives the request context.
func (s *Service) compensate(ctx context.Context, subject string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.provider.DeleteUser(cctx, subject); err != nil {
		s.metrics.Compensation("failed")
		slog.ErrorContext(ctx, "could not delete orphaned provider account",
			"profile_id", subject,
			"error", err,
		)
		return
	}

	s.metrics.Compensation("succeeded")
	core.AddSpanEvent(ctx, stateCompensated)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	session, err := s.provider.SignIn(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, invalidCredentialsError()
		}
		slog.WarnContext(ctx, "identity provider sign in failed", "error", err)
		return nil, core.UpstreamError("")
	}

	return &LoginResponse{
		AccessToken: session.AccessToken,
		UserID:      session.Subject,
	}, nil
}

// Logout revokes token until it could no longer pass verification.
func (s *Service) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	return s.revocations.Revoke(ctx, token, expiresAt.Add(s.leeway))
}

func (s *Service) GetCurrentProfile(ctx context.Context, id string) (*profile.Profile, error) {
	return s.profiles.GetMe(ctx, id)
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
