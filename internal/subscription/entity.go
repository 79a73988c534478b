// AngelaMos | 2026
// entity.go

package subscription

import (
	"time"
)

type Plan struct {
	ID                 string    `db:"id"`
	Name               string    `db:"name"`
	Description        string    `db:"description"`
	PriceCents         int64     `db:"price_cents"`
	EventCreationLimit int       `db:"event_creation_limit"`
	IsPublic           bool      `db:"is_public"`
	CreatedAt          time.Time `db:"created_at"`
}

// Subscription keeps its row when the plan is deleted; PlanID becomes nil.
type Subscription struct {
	ID        string     `db:"id"`
	ProfileID string     `db:"profile_id"`
	PlanID    *string    `db:"plan_id"`
	StartDate time.Time  `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
	IsActive  bool       `db:"is_active"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (s *Subscription) IsCurrent(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	return s.EndDate == nil || now.Before(*s.EndDate)
}

type DailyQuota struct {
	Date               time.Time `db:"quota_date"`
	RegistrationsCount int       `db:"registrations_count"`
}

const (
	DiscountFixed      = "fixed"
	DiscountPercentage = "percentage"
)

// Coupon amounts are cents for fixed discounts and whole percent otherwise.
type Coupon struct {
	ID           string    `db:"id"`
	Code         string    `db:"code"`
	DiscountType string    `db:"discount_type"`
	Amount       int64     `db:"amount"`
	UsageLimit   int       `db:"usage_limit"`
	TimesUsed    int       `db:"times_used"`
	ValidFrom    time.Time `db:"valid_from"`
	ValidTo      time.Time `db:"valid_to"`
	IsActive     bool      `db:"is_active"`
}

func (c *Coupon) IsValid(now time.Time) bool {
	return c.IsActive &&
		c.TimesUsed < c.UsageLimit &&
		!now.Before(c.ValidFrom) &&
		!now.After(c.ValidTo)
}

// Apply returns the discounted price, never below zero.
func (c *Coupon) Apply(priceCents int64) int64 {
	var discounted int64
	switch c.DiscountType {
	case DiscountPercentage:
		pct := min(max(c.Amount, 0), 100)
		discounted = priceCents * (100 - pct) / 100
	default:
		discounted = priceCents - c.Amount
	}
	return max(discounted, 0)
}
