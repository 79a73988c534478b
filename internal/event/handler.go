// AngelaMos | 2026
// handler.go

package event

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

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
	r.Route("/events", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
			r.Post("/join", h.Join)
			r.Get("/members", h.ListMembers)
			r.Post("/members", h.AddMember)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !h.decode(w, r, &req) {
		return
	}

	e, err := h.service.Create(r.Context(), middleware.GetProfileID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToEventResponse(e))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListForProfile(r.Context(), middleware.GetProfileID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToEventResponseList(events))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	e, err := h.service.Get(r.Context(), eventID, middleware.GetProfileID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToEventResponse(e))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateEventRequest
	if !h.decode(w, r, &req) {
		return
	}

	e, err := h.service.Update(r.Context(), eventID, middleware.GetProfileID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToEventResponse(e))
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	m, err := h.service.Join(r.Context(), eventID, middleware.GetProfileID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToMembershipResponse(m))
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	members, err := h.service.ListMembers(r.Context(), eventID, middleware.GetProfileID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToMemberResponseList(members))
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	var req AddMemberRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.service.AddMember(r.Context(), eventID, middleware.GetProfileID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToMembershipResponse(m))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func eventIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "eventID")
	id, err := uuid.Parse(raw)
	if err != nil {
		core.NotFound(w, "event")
		return "", false
	}
	return id.String(), true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) && !core.IsAppError(err) {
		core.NotFound(w, "event")
		return
	}
	core.JSONError(w, err)
}
