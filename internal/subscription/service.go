// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/meetstack/backend/internal/clock"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

type Service struct {
	repo        Repository
	tx          core.Transactor
	clock       clock.Clock
	defaultPlan string
}

func NewService(
	repo Repository,
	tx core.Transactor,
	clk clock.Clock,
	defaultPlan string,
) *Service {
	return &Service{
		repo:        repo,
		tx:          tx,
		clock:       clk,
		defaultPlan: defaultPlan,
	}
}

// AssignDefault attaches the configured default plan to a new profile.
// A missing plan is a deployment fault, reported as core.ErrConfiguration.
func (s *Service) AssignDefault(ctx context.Context, profileID string) (*Subscription, error) {
	plan, err := s.repo.GetPlanByName(ctx, s.defaultPlan)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf(
				"default plan %q is not seeded: %w",
				s.defaultPlan,
				core.ErrConfiguration,
			)
		}
		return nil, err
	}

	sub := &Subscription{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		PlanID:    &plan.ID,
		StartDate: s.clock.Now().UTC(),
		IsActive:  true,
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *Service) ListPublicPlans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPublicPlans(ctx)
}

// GetForProfile returns the subscription together with its plan, which is
// nil when the plan has been deleted.
func (s *Service) GetForProfile(
	ctx context.Context,
	profileID string,
) (*Subscription, *Plan, error) {
	sub, err := s.repo.GetSubscriptionByProfile(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}

	if sub.PlanID == nil {
		return sub, nil, nil
	}

	plan, err := s.repo.GetPlanByID(ctx, *sub.PlanID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, nil, err
	}

	return sub, plan, nil
}

type ChangeResult struct {
	Subscription *Subscription
	Plan         *Plan
	ChargedCents int64
	CouponCode   string
}

// ChangePlan moves the caller to another public plan. A coupon, when given,
// is locked and redeemed in the same transaction.
func (s *Service) ChangePlan(
	ctx context.Context,
	profileID string,
	req ChangePlanRequest,
) (*ChangeResult, error) {
	var result *ChangeResult

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		plan, err := s.repo.GetPlanByID(ctx, req.PlanID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.NotFoundError("plan")
			}
			return err
		}
		if !plan.IsPublic {
			return core.NotFoundError("plan")
		}

		charged := plan.PriceCents
		code := strings.TrimSpace(req.CouponCode)

		if code != "" {
			coupon, err := s.repo.LockCouponByCode(ctx, code)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					return core.ValidationError("coupon is not valid")
				}
				return err
			}
			if !coupon.IsValid(s.clock.Now()) {
				return core.ValidationError("coupon is not valid")
			}
			if err := s.repo.IncrementCouponUsage(ctx, coupon.ID); err != nil {
				return err
			}
			charged = coupon.Apply(plan.PriceCents)
		}

		if err := s.repo.ChangeSubscriptionPlan(ctx, profileID, plan.ID); err != nil {
			return err
		}

		sub, err := s.repo.GetSubscriptionByProfile(ctx, profileID)
		if err != nil {
			return err
		}

		result = &ChangeResult{
			Subscription: sub,
			Plan:         plan,
			ChargedCents: charged,
			CouponCode:   code,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) CountByPlan(ctx context.Context) (map[string]int, error) {
	return s.repo.CountSubscriptionsByPlan(ctx)
}
