// AngelaMos | 2026
// handler.go

package subscription

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/middleware"
)

type Handler struct {
	service   *Service
	quota     *QuotaGate
	validator *validator.Validate
}

func NewHandler(service *Service, quota *QuotaGate) *Handler {
	return &Handler{
		service:   service,
		quota:     quota,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Get("/plans", h.ListPlans)

	r.Route("/subscriptions", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMine)
		r.Put("/me", h.ChangeMine)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, staffOnly func(http.Handler) http.Handler,
) {
	r.With(authenticator, staffOnly).Get("/admin/quota", h.QuotaUsage)
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPublicPlans(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPlanResponseList(plans))
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	sub, plan, err := h.service.GetForProfile(r.Context(), middleware.GetProfileID(r.Context()))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "subscription")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToSubscriptionResponse(sub, plan, h.service.clock.Now()))
}

func (h *Handler) ChangeMine(w http.ResponseWriter, r *http.Request) {
	var req ChangePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	res, err := h.service.ChangePlan(r.Context(), middleware.GetProfileID(r.Context()), req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) && !core.IsAppError(err) {
			core.NotFound(w, "subscription")
			return
		}
		core.JSONError(w, err)
		return
	}

	core.OK(w, ChangePlanResponse{
		Subscription: ToSubscriptionResponse(res.Subscription, res.Plan, h.service.clock.Now()),
		ChargedCents: res.ChargedCents,
		CouponCode:   res.CouponCode,
	})
}

func (h *Handler) QuotaUsage(w http.ResponseWriter, r *http.Request) {
	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			core.BadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	usage, err := h.quota.Usage(r.Context(), date)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, usage)
}
