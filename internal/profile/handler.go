// AngelaMos | 2026
// handler.go

package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/profiles", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, staffOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/profiles", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(staffOnly)

		r.Get("/", h.ListProfiles)
		r.Put("/{profileID}/status", h.SetStatus)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetMe(r.Context(), middleware.GetProfileID(r.Context()))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "profile")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.UpdateMe(r.Context(), middleware.GetProfileID(r.Context()), req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "profile")
			return
		}
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	params := ListProfilesParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Status:   r.URL.Query().Get("status"),
	}
	params.Normalize()

	profiles, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToProfileResponseList(profiles), params.Page, params.PageSize, total)
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active suspended"`
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	profileID := chi.URLParam(r, "profileID")
	if err := h.service.SetStatus(r.Context(), profileID, req.Status); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "profile")
			return
		}
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
