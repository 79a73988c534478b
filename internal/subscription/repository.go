// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

type Repository interface {
	GetPlanByName(ctx context.Context, name string) (*Plan, error)
	GetPlanByID(ctx context.Context, id string) (*Plan, error)
	ListPublicPlans(ctx context.Context) ([]Plan, error)

	CreateSubscription(ctx context.Context, sub *Subscription) error
	GetSubscriptionByProfile(ctx context.Context, profileID string) (*Subscription, error)
	ChangeSubscriptionPlan(ctx context.Context, profileID, planID string) error
	CountSubscriptionsByPlan(ctx context.Context) (map[string]int, error)

	LockCouponByCode(ctx context.Context, code string) (*Coupon, error)
	IncrementCouponUsage(ctx context.Context, id string) error

	QuotaStore
}

// QuotaStore is the persistence the quota gate needs.
type QuotaStore interface {
	EnsureQuotaRow(ctx context.Context, date time.Time) error
	LockQuota(ctx context.Context, date time.Time) (int, error)
	IncrementQuota(ctx context.Context, date time.Time) (int, error)
	GetQuota(ctx context.Context, date time.Time) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const planColumns = `id, name, description, price_cents, event_creation_limit, is_public, created_at`

func (r *repository) GetPlanByName(ctx context.Context, name string) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE name = $1`

	var p Plan
	err := core.Conn(ctx, r.db).GetContext(ctx, &p, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %q: %w", name, err)
	}

	return &p, nil
}

func (r *repository) GetPlanByID(ctx context.Context, id string) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	var p Plan
	err := core.Conn(ctx, r.db).GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	return &p, nil
}

func (r *repository) ListPublicPlans(ctx context.Context) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE is_public ORDER BY price_cents, name`

	var plans []Plan
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	return plans, nil
}

func (r *repository) CreateSubscription(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (id, profile_id, plan_id, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &sub.UpdatedAt, query,
		sub.ID,
		sub.ProfileID,
		sub.PlanID,
		sub.StartDate,
		sub.EndDate,
		sub.IsActive,
	)
	if err != nil {
		if _, ok := core.IsUniqueViolation(err); ok {
			return fmt.Errorf("create subscription: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create subscription: %w", err)
	}

	return nil
}

func (r *repository) GetSubscriptionByProfile(
	ctx context.Context,
	profileID string,
) (*Subscription, error) {
	query := `
		SELECT id, profile_id, plan_id, start_date, end_date, is_active, updated_at
		FROM subscriptions
		WHERE profile_id = $1`

	var sub Subscription
	err := core.Conn(ctx, r.db).GetContext(ctx, &sub, query, profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &sub, nil
}

func (r *repository) ChangeSubscriptionPlan(ctx context.Context, profileID, planID string) error {
	query := `
		UPDATE subscriptions
		SET plan_id = $2, start_date = NOW(), end_date = NULL,
		    is_active = TRUE, updated_at = NOW()
		WHERE profile_id = $1`

	res, err := core.Conn(ctx, r.db).ExecContext(ctx, query, profileID, planID)
	if err != nil {
		return fmt.Errorf("change subscription plan: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("change subscription plan: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("change subscription plan: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CountSubscriptionsByPlan(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Name  string `db:"name"`
		Count int    `db:"count"`
	}

	query := `
		SELECT COALESCE(p.name, 'none') AS name, COUNT(*) AS count
		FROM subscriptions s
		LEFT JOIN plans p ON p.id = s.plan_id
		GROUP BY 1`

	if err := core.Conn(ctx, r.db).SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Name] = row.Count
	}

	return counts, nil
}

func (r *repository) LockCouponByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `
		SELECT id, code, discount_type, amount, usage_limit, times_used,
		       valid_from, valid_to, is_active
		FROM coupons
		WHERE code = $1
		FOR UPDATE`

	var c Coupon
	err := core.Conn(ctx, r.db).GetContext(ctx, &c, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock coupon: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock coupon: %w", err)
	}

	return &c, nil
}

func (r *repository) IncrementCouponUsage(ctx context.Context, id string) error {
	query := `UPDATE coupons SET times_used = times_used + 1 WHERE id = $1`

	if _, err := core.Conn(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}

	return nil
}

func (r *repository) EnsureQuotaRow(ctx context.Context, date time.Time) error {
	query := `
		INSERT INTO daily_quotas (quota_date, registrations_count)
		VALUES ($1, 0)
		ON CONFLICT (quota_date) DO NOTHING`

	if _, err := core.Conn(ctx, r.db).ExecContext(ctx, query, date); err != nil {
		return fmt.Errorf("ensure quota row: %w", err)
	}

	return nil
}

// LockQuota must run inside a transaction; the lock is held until commit.
func (r *repository) LockQuota(ctx context.Context, date time.Time) (int, error) {
	query := `
		SELECT registrations_count
		FROM daily_quotas
		WHERE quota_date = $1
		FOR UPDATE`

	var count int
	err := core.Conn(ctx, r.db).GetContext(ctx, &count, query, date)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lock quota: %w", core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lock quota: %w", err)
	}

	return count, nil
}

func (r *repository) IncrementQuota(ctx context.Context, date time.Time) (int, error) {
	query := `
		UPDATE daily_quotas
		SET registrations_count = registrations_count + 1
		WHERE quota_date = $1
		RETURNING registrations_count`

	var count int
	if err := core.Conn(ctx, r.db).GetContext(ctx, &count, query, date); err != nil {
		return 0, fmt.Errorf("increment quota: %w", err)
	}

	return count, nil
}

func (r *repository) GetQuota(ctx context.Context, date time.Time) (int, error) {
	query := `SELECT registrations_count FROM daily_quotas WHERE quota_date = $1`

	var count int
	err := core.Conn(ctx, r.db).GetContext(ctx, &count, query, date)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get quota: %w", err)
	}

	return count, nil
}
