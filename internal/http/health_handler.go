package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/karloscodes/cartridge"
)

const (
	checkOK       = "ok"
	checkError    = "error"
	checkDisabled = "disabled"
)

// healthTimeout bounds each dependency check.
const healthTimeout = 2 * time.Second

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	DBStatus    string    `json:"db_status"`
	CacheStatus string    `json:"cache_status"`
}

// HealthHandler reports database and report cache reachability.
type HealthHandler struct {
	cache Pinger
}

// NewHealthHandler creates the handler. cache may be nil when no report
// cache is configured.
func NewHealthHandler(cache Pinger) *HealthHandler {
	return &HealthHandler{cache: cache}
}

// IndexAction handles GET and HEAD /_health. A failing dependency degrades
// the status and answers 503.
func (h *HealthHandler) IndexAction(ctx *cartridge.Context) error {
	health := HealthStatus{
		Status:      "ok",
		Timestamp:   time.Now().UTC(),
		DBStatus:    h.databaseStatus(ctx),
		CacheStatus: h.cacheStatus(ctx),
	}

	if health.DBStatus == checkError || health.CacheStatus == checkError {
		health.Status = "degraded"
		return ctx.Status(http.StatusServiceUnavailable).JSON(health)
	}
	return ctx.JSON(health)
}

func (h *HealthHandler) databaseStatus(ctx *cartridge.Context) string {
	db := ctx.DBManager.GetConnection()
	if db == nil {
		ctx.Logger.Error("Database connection unavailable")
		return checkError
	}

	sqlDB, err := db.DB()
	if err != nil {
		ctx.Logger.Error("Database connection error", slog.Any("error", err))
		return checkError
	}

	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), healthTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		ctx.Logger.Error("Database ping failed", slog.Any("error", err))
		return checkError
	}
	return checkOK
}

func (h *HealthHandler) cacheStatus(ctx *cartridge.Context) string {
	if h.cache == nil {
		return checkDisabled
	}

	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), healthTimeout)
	defer cancel()
	if err := h.cache.Ping(pingCtx); err != nil {
		ctx.Logger.Error("Report cache ping failed", slog.Any("error", err))
		return checkError
	}
	return checkOK
}
