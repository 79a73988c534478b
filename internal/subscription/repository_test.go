// AngelaMos | 2026
// repository_test.go

package subscription

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/meetstack/backend/internal/clock"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/testutil"
)

func TestQuotaGate_ConcurrentReservesNeverExceedCeiling(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	gate := NewQuotaGate(NewRepository(db.DB), clock.NewFixed(testNow), 5)

	var accepted, rejected atomic.Int32
	var wg sync.WaitGroup
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.WithinTx(context.Background(), func(ctx context.Context) error {
				_, err := gate.Reserve(ctx)
				return err
			})
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, core.ErrQuotaExceeded):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), accepted.Load())
	assert.Equal(t, int32(7), rejected.Load())

	usage, err := gate.Usage(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 5, usage.Count)
}

func TestQuotaGate_RollbackReturnsSlot(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	gate := NewQuotaGate(NewRepository(db.DB), clock.NewFixed(testNow), 5)

	boom := errors.New("later step failed")
	err := db.WithinTx(context.Background(), func(ctx context.Context) error {
		if _, err := gate.Reserve(ctx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	usage, err := gate.Usage(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.Count)
}

func TestService_AssignDefaultAgainstPostgres(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := NewRepository(db.DB)
	svc := NewService(repo, db, clock.NewFixed(testNow), "free")
	ctx := context.Background()

	testutil.InsertProfile(t, db.DB, "sub-profile", "s@x.com")

	_, err := svc.AssignDefault(ctx, "sub-profile")
	require.NoError(t, err)

	sub, plan, err := svc.GetForProfile(ctx, "sub-profile")
	require.NoError(t, err)
	assert.True(t, sub.IsActive)
	require.NotNil(t, plan)
	assert.Equal(t, "free", plan.Name)

	_, err = svc.AssignDefault(ctx, "sub-profile")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)

	counts, err := svc.CountByPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["free"])
}
