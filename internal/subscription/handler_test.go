// AngelaMos | 2026
// handler_test.go

package subscription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/meetstack/backend/internal/clock"
	"github.com/carterperez-dev/meetstack/backend/internal/middleware"
)

func asProfile(id string, staff bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := &middleware.Principal{ProfileID: id, IsStaff: staff}
			next.ServeHTTP(w, r.WithContext(middleware.WithPrincipal(r.Context(), p)))
		})
	}
}

func newTestRouter(repo *memRepo, staff bool) http.Handler {
	svc := newTestService(repo, "free")
	h := NewHandler(svc, NewQuotaGate(repo, clock.NewFixed(testNow), 40))

	r := chi.NewRouter()
	h.RegisterRoutes(r, asProfile("profile-1", staff))
	h.RegisterAdminRoutes(r, asProfile("profile-1", staff), middleware.RequireStaff)
	return r
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestGetMine(t *testing.T) {
	repo := newMemRepo()
	_, err := newTestService(repo, "free").AssignDefault(context.Background(), "profile-1")
	require.NoError(t, err)

	rec := serve(newTestRouter(repo, false), http.MethodGet, "/subscriptions/me")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body SubscriptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Plan)
	assert.Equal(t, "free", body.Plan.Name)
	assert.True(t, body.IsActive)
	assert.True(t, body.Current)
}

func TestGetMine_EndedSubscriptionIsNotCurrent(t *testing.T) {
	repo := newMemRepo()
	planID := freePlanID
	ended := testNow.Add(-24 * time.Hour)
	repo.subs["profile-1"] = &Subscription{
		ID:        "sub-1",
		ProfileID: "profile-1",
		PlanID:    &planID,
		StartDate: testNow.Add(-48 * time.Hour),
		EndDate:   &ended,
		IsActive:  true,
	}

	rec := serve(newTestRouter(repo, false), http.MethodGet, "/subscriptions/me")
	require.Equal(t, http.StatusOK, rec.Code)

	var body SubscriptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.IsActive)
	assert.False(t, body.Current)
}

func TestGetMine_NoSubscription(t *testing.T) {
	rec := serve(newTestRouter(newMemRepo(), false), http.MethodGet, "/subscriptions/me")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPlans(t *testing.T) {
	rec := serve(newTestRouter(newMemRepo(), false), http.MethodGet, "/plans")
	require.Equal(t, http.StatusOK, rec.Code)

	var plans []PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, "free", plans[0].Name)
}

func TestQuotaUsage(t *testing.T) {
	repo := newMemRepo()
	repo.quotas[testNow.Format(time.DateOnly)] = 12

	t.Run("staff", func(t *testing.T) {
		rec := serve(newTestRouter(repo, true), http.MethodGet, "/admin/quota")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usage QuotaUsage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usage))
		assert.Equal(t, "2026-03-14", usage.Date)
		assert.Equal(t, 12, usage.Count)
		assert.Equal(t, 28, usage.Remaining)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := serve(newTestRouter(repo, true), http.MethodGet, "/admin/quota?date=14-03-2026")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not staff", func(t *testing.T) {
		rec := serve(newTestRouter(repo, false), http.MethodGet, "/admin/quota")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
