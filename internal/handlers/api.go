package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/services/cache"
	"github.com/ternarybob/screener/internal/services/scheduler"
)

// CacheStats reports fetch cache counters
type CacheStats interface {
	Stats() cache.Stats
}

// ScheduleLister reports scheduled environments
type ScheduleLister interface {
	Statuses() []scheduler.JobStatus
}

type APIHandler struct {
	cache     CacheStats
	schedules ScheduleLister
	logger    arbor.ILogger
}

// NewAPIHandler creates an APIHandler. Either dependency may be nil.
func NewAPIHandler(cacheStats CacheStats, schedules ScheduleLister, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		cache:     cacheStats,
		schedules: schedules,
		logger:    logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.Version,
		"build":      common.Build,
		"git_commit": common.GitCommit,
	})
}

// HealthHandler returns health check status
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	body := map[string]interface{}{
		"status":  "ok",
		"version": common.Version,
	}
	if h.cache != nil {
		body["cache"] = h.cache.Stats()
	}
	if h.schedules != nil {
		body["schedules"] = h.schedules.Statuses()
	}
	WriteJSON(w, http.StatusOK, body)
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"status": "error",
		"error":  ErrCodeNotFound,
		"path":   r.URL.Path,
	})
}
