// AngelaMos | 2026
// quota_test.go

package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/meetstack/backend/internal/clock"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

func TestQuotaGate_AcceptsUpToCeilingThenRejects(t *testing.T) {
	repo := newMemRepo()
	clk := clock.NewFixed(testNow)
	gate := NewQuotaGate(repo, clk, 40)
	ctx := context.Background()

	repo.quotas[testNow.Format(time.DateOnly)] = 39

	require.NoError(t, gate.Check(ctx))
	count, err := gate.Reserve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, count)

	assert.ErrorIs(t, gate.Check(ctx), core.ErrQuotaExceeded)

	count, err = gate.Reserve(ctx)
	require.ErrorIs(t, err, core.ErrQuotaExceeded)
	assert.Equal(t, 40, count)
	assert.Equal(t, 40, repo.quotas[testNow.Format(time.DateOnly)])

	appErr, ok := core.FromError(err)
	require.True(t, ok)
	assert.Equal(t, 429, appErr.StatusCode)
}

func TestQuotaGate_ResetsOnNextUTCDay(t *testing.T) {
	repo := newMemRepo()
	clk := clock.NewFixed(testNow)
	gate := NewQuotaGate(repo, clk, 1)
	ctx := context.Background()

	_, err := gate.Reserve(ctx)
	require.NoError(t, err)
	_, err = gate.Reserve(ctx)
	require.ErrorIs(t, err, core.ErrQuotaExceeded)

	clk.Advance(time.Hour)

	count, err := gate.Reserve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestQuotaGate_Usage(t *testing.T) {
	repo := newMemRepo()
	gate := NewQuotaGate(repo, clock.NewFixed(testNow), 40)
	repo.quotas["2026-03-14"] = 12

	usage, err := gate.Usage(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, &QuotaUsage{Date: "2026-03-14", Count: 12, Ceiling: 40, Remaining: 28}, usage)

	other, err := gate.Usage(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, other.Count)
}
