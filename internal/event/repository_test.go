// AngelaMos | 2026
// repository_test.go

package event

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/profile"
	"github.com/carterperez-dev/meetstack/backend/internal/testutil"
)

func newPostgresService(t *testing.T) (*Service, *core.Database) {
	t.Helper()
	db := testutil.NewTestDatabase(t)

	svc := NewService(ServiceConfig{
		Repo:       NewRepository(db.DB),
		Tx:         db,
		Profiles:   profile.NewService(profile.NewRepository(db.DB)),
		OwnerLimit: 2,
	})
	return svc, db
}

func TestPostgres_ConcurrentCreatesStopAtLimit(t *testing.T) {
	svc, db := newPostgresService(t)
	testutil.InsertProfile(t, db.DB, "owner", "o@x.com")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Create(context.Background(), "owner", CreateEventRequest{Name: "Same Name"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, testutil.CountRows(t, db.DB, "events"))
	assert.Equal(t, 2, testutil.CountRows(t, db.DB, "event_memberships"))
}

func TestPostgres_RejectedCreateWritesNothing(t *testing.T) {
	svc, db := newPostgresService(t)
	testutil.InsertProfile(t, db.DB, "owner", "o@x.com")
	ctx := context.Background()

	for _, name := range []string{"One", "Two"} {
		_, err := svc.Create(ctx, "owner", CreateEventRequest{Name: name})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, "owner", CreateEventRequest{Name: "Three"})
	require.ErrorIs(t, err, core.ErrLimitExceeded)
	assert.Equal(t, 2, testutil.CountRows(t, db.DB, "events"))
}

func TestPostgres_UniqueConstraintMapsToDuplicateMembership(t *testing.T) {
	svc, db := newPostgresService(t)
	testutil.InsertProfile(t, db.DB, "owner", "o@x.com")
	testutil.InsertProfile(t, db.DB, "guest", "g@x.com")
	ctx := context.Background()

	e, err := svc.Create(ctx, "owner", CreateEventRequest{Name: "Conf"})
	require.NoError(t, err)

	repo := NewRepository(db.DB)
	m := &Membership{ID: uuid.NewString(), EventID: e.ID, ProfileID: "guest", Role: RoleAttendee}
	require.NoError(t, repo.AddMembership(ctx, m))

	dup := &Membership{ID: uuid.NewString(), EventID: e.ID, ProfileID: "guest", Role: RoleAttendee}
	assert.ErrorIs(t, repo.AddMembership(ctx, dup), core.ErrDuplicateMembership)

	_, err = svc.Join(ctx, e.ID, "guest")
	assert.ErrorIs(t, err, core.ErrDuplicateMembership)

	members, err := svc.ListMembers(ctx, e.ID, "owner")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.NotNil(t, members[0].Email)
}

func TestPostgres_ListForProfileIsDistinct(t *testing.T) {
	svc, db := newPostgresService(t)
	testutil.InsertProfile(t, db.DB, "owner", "o@x.com")
	ctx := context.Background()

	e, err := svc.Create(ctx, "owner", CreateEventRequest{Name: "Mine"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, e.ID, "owner")
	require.NoError(t, err)

	events, err := svc.ListForProfile(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, events, 1)

	counts, err := svc.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[StatusDraft])
}
