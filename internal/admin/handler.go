// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/event"
)

type ProfileCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type EventCounter interface {
	CountByStatus(ctx context.Context) (map[event.Status]int, error)
}

type SubscriptionCounter interface {
	CountByPlan(ctx context.Context) (map[string]int, error)
}

type Handler struct {
	profiles      ProfileCounter
	events        EventCounter
	subscriptions SubscriptionCounter
	dbStats       func() sql.DBStats
	redisStats    func() *redis.PoolStats
	dbPing        func(ctx context.Context) error
	redisPing     func(ctx context.Context) error
}

type HandlerConfig struct {
	Profiles      ProfileCounter
	Events        EventCounter
	Subscriptions SubscriptionCounter
	DBStats       func() sql.DBStats
	RedisStats    func() *redis.PoolStats
	DBPing        func(ctx context.Context) error
	RedisPing     func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		profiles:      cfg.Profiles,
		events:        cfg.Events,
		subscriptions: cfg.Subscriptions,
		dbStats:       cfg.DBStats,
		redisStats:    cfg.RedisStats,
		dbPing:        cfg.DBPing,
		redisPing:     cfg.RedisPing,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, staffOnly func(http.Handler) http.Handler,
) {
	r.With(authenticator, staffOnly).Get("/admin/stats", h.GetStats)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	var (
		profiles      map[string]int
		events        map[event.Status]int
		subscriptions map[string]int
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		profiles, err = h.profiles.CountByStatus(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = h.events.CountByStatus(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		subscriptions, err = h.subscriptions.CountByPlan(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		core.JSONError(w, err)
		return
	}

	eventCounts := make(map[string]int, len(events))
	for status, n := range events {
		eventCounts[string(status)] = n
	}

	core.OK(w, StatsResponse{
		Profiles:      profiles,
		Events:        eventCounts,
		Subscriptions: subscriptions,
		Database: DatabaseStatus{
			Healthy: ping(r.Context(), h.dbPing),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: ping(r.Context(), h.redisPing),
			Stats:   h.getRedisStats(),
		},
		Runtime: runtimeStats(),
	})
}

func ping(ctx context.Context, fn func(ctx context.Context) error) bool {
	if fn == nil {
		return false
	}
	return fn(ctx) == nil
}

func runtimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		MemAlloc:     memStats.Alloc,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	if stats == nil {
		return nil
	}
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

type StatsResponse struct {
	Profiles      map[string]int `json:"profiles"`
	Events        map[string]int `json:"events"`
	Subscriptions map[string]int `json:"subscriptions"`
	Database      DatabaseStatus `json:"database"`
	Redis         RedisStatus    `json:"redis"`
	Runtime       RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
