// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"
)

type ChangePlanRequest struct {
	PlanID     string `json:"plan_id"     validate:"required,uuid"`
	CouponCode string `json:"coupon_code" validate:"omitempty,max=50"`
}

type PlanResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	PriceCents         int64  `json:"price_cents"`
	EventCreationLimit int    `json:"event_creation_limit"`
}

type SubscriptionResponse struct {
	ID        string        `json:"id"`
	Plan      *PlanResponse `json:"plan"`
	StartDate time.Time     `json:"start_date"`
	EndDate   *time.Time    `json:"end_date,omitempty"`
	IsActive  bool          `json:"is_active"`
	Current   bool          `json:"current"`
}

type ChangePlanResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	ChargedCents int64                `json:"charged_cents"`
	CouponCode   string               `json:"coupon_code,omitempty"`
}

func ToPlanResponse(p *Plan) *PlanResponse {
	if p == nil {
		return nil
	}
	return &PlanResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		PriceCents:         p.PriceCents,
		EventCreationLimit: p.EventCreationLimit,
	}
}

func ToPlanResponseList(plans []Plan) []PlanResponse {
	out := make([]PlanResponse, len(plans))
	for i := range plans {
		out[i] = *ToPlanResponse(&plans[i])
	}
	return out
}

// ToSubscriptionResponse marks the subscription current as of now.
func ToSubscriptionResponse(s *Subscription, p *Plan, now time.Time) SubscriptionResponse {
	return SubscriptionResponse{
		ID:        s.ID,
		Plan:      ToPlanResponse(p),
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		IsActive:  s.IsActive,
		Current:   s.IsCurrent(now),
	}
}
