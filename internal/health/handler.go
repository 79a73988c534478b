// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

type Checker interface {
	Ping(ctx context.Context) error
}

type namedChecker struct {
	name    string
	checker Checker
}

type Handler struct {
	checkers []namedChecker
	shutdown atomic.Bool
}

// NewHandler builds the probe handler. Each dependency checked by
// /readyz is registered with WithCheck.
func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) WithCheck(name string, c Checker) *Handler {
	h.checkers = append(h.checkers, namedChecker{name: name, checker: c})
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

// Health is the public uptime probe. Its body is always exactly
// {"status":"ok"} and it never touches a dependency.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeStatus(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.shutdown.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "shutting_down",
		})
		return
	}

	h.writeStatus(w, http.StatusOK, StatusResponse{
		Status: "ok",
	})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "shutting_down",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := h.runChecks(ctx)

	status := "ok"
	statusCode := http.StatusOK
	for _, check := range checks {
		if !check.Healthy {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
			break
		}
	}

	h.writeStatus(w, statusCode, ReadinessResponse{
		Status: status,
		Checks: checks,
	})
}

func (h *Handler) runChecks(ctx context.Context) []HealthCheck {
	var wg sync.WaitGroup
	checks := make([]HealthCheck, len(h.checkers))

	for i, nc := range h.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = runCheck(ctx, nc)
		}()
	}

	wg.Wait()
	return checks
}

func runCheck(ctx context.Context, nc namedChecker) HealthCheck {
	check := HealthCheck{
		Name:    nc.name,
		Healthy: true,
	}

	if nc.checker == nil {
		check.Healthy = false
		check.Message = nc.name + " checker not configured"
		return check
	}

	start := time.Now()
	err := nc.checker.Ping(ctx)
	check.Latency = time.Since(start).String()

	if err != nil {
		check.Healthy = false
		check.Message = "ping failed"
	}

	return check
}

func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func (h *Handler) writeStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(data)
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}
