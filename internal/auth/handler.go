// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/middleware"
	"github.com/carterperez-dev/meetstack/backend/internal/profile"
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

// RegisterRoutes mounts the public endpoints behind publicLimit, which is
// usually stricter than the global rate limit.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	publicLimit func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if publicLimit != nil {
				r.Use(publicLimit)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/logout", h.Logout)
		})
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	token := middleware.GetToken(r.Context())
	if claims == nil || token == "" {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.Logout(r.Context(), token, claims.ExpiresAt); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	if profileID == "" {
		core.Unauthorized(w, "")
		return
	}

	p, err := h.service.GetCurrentProfile(r.Context(), profileID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "profile")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, profile.ToProfileResponse(p))
}
