// AngelaMos | 2026
// quota.go

package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/meetstack/backend/internal/clock"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

// QuotaGate caps free registrations per UTC calendar day.
type QuotaGate struct {
	store   QuotaStore
	clock   clock.Clock
	ceiling int
}

func NewQuotaGate(store QuotaStore, clk clock.Clock, ceiling int) *QuotaGate {
	return &QuotaGate{store: store, clock: clk, ceiling: ceiling}
}

// Check is an advisory read made before calling the identity provider so a
// full day fails without creating a remote account. Reserve is authoritative.
func (g *QuotaGate) Check(ctx context.Context) error {
	count, err := g.store.GetQuota(ctx, clock.Today(g.clock))
	if err != nil {
		return fmt.Errorf("check quota: %w", err)
	}

	if count >= g.ceiling {
		return core.ErrQuotaExceeded
	}

	return nil
}

// Reserve claims one slot for today. It must run inside the registration
// transaction: the row lock serializes concurrent registrations and a
// rollback returns the slot.
func (g *QuotaGate) Reserve(ctx context.Context) (int, error) {
	today := clock.Today(g.clock)

	if err := g.store.EnsureQuotaRow(ctx, today); err != nil {
		return 0, err
	}

	count, err := g.store.LockQuota(ctx, today)
	if err != nil {
		return 0, err
	}

	if count >= g.ceiling {
		return count, core.ErrQuotaExceeded
	}

	return g.store.IncrementQuota(ctx, today)
}

type QuotaUsage struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Ceiling   int    `json:"ceiling"`
	Remaining int    `json:"remaining"`
}

// Usage reports the counter for date, or today when date is zero.
func (g *QuotaGate) Usage(ctx context.Context, date time.Time) (*QuotaUsage, error) {
	if date.IsZero() {
		date = clock.Today(g.clock)
	} else {
		y, m, d := date.UTC().Date()
		date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	count, err := g.store.GetQuota(ctx, date)
	if err != nil {
		return nil, err
	}

	return &QuotaUsage{
		Date:      date.Format(time.DateOnly),
		Count:     count,
		Ceiling:   g.ceiling,
		Remaining: max(g.ceiling-count, 0),
	}, nil
}
