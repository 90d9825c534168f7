package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/critfumble/internal/services"
	"github.com/jwebster45206/critfumble/pkg/tables"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	cache  services.Cache
	repo   *tables.Repository
	logger *slog.Logger
}

// NewHealthHandler creates a health handler. cache may be nil when Redis is
// not configured.
func NewHealthHandler(cache services.Cache, repo *tables.Repository, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		cache:  cache,
		repo:   repo,
		logger: logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if h.repo != nil && len(h.repo.Sources()) > 0 {
		components["tables"] = "healthy"
	} else {
		components["tables"] = "unhealthy"
		overallStatus = "unhealthy"
	}

	// The cache is optional; losing it only degrades geolocation.
	switch {
	case h.cache == nil:
		components["cache"] = "disabled"
	case h.cache.Ping(ctx) != nil:
		h.logger.Warn("Cache health check failed")
		components["cache"] = "unhealthy"
		if overallStatus == "healthy" {
			overallStatus = "degraded"
		}
	default:
		components["cache"] = "healthy"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "critfumble",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}
