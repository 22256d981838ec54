package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/api/middleware"
	"github.com/skyforecaster/skyforecaster/internal/api/models"
	"github.com/skyforecaster/skyforecaster/internal/api/response"
)

// CacheInvalidator clears a service's cached state.
type CacheInvalidator interface {
	InvalidateCache()
}

// RefreshTrigger enqueues a refresh of all configured locations.
// Implementations typically publish a job for the worker.
type RefreshTrigger func(ctx context.Context, jobID string) error

// AdminHandler serves the token-gated operational endpoints.
type AdminHandler struct {
	caches  []CacheInvalidator
	refresh RefreshTrigger
	logger  zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(caches []CacheInvalidator, refresh RefreshTrigger, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		caches:  caches,
		refresh: refresh,
		logger:  logger,
	}
}

// InvalidateCaches handles POST /v1/admin/cache/invalidate.
func (h *AdminHandler) InvalidateCaches(w http.ResponseWriter, r *http.Request) {
	for _, c := range h.caches {
		c.InvalidateCache()
	}

	h.logger.Info().
		Str("service", middleware.GetService(r.Context())).
		Int("caches", len(h.caches)).
		Msg("caches invalidated")

	response.JSON(w, r, http.StatusOK, models.AdminActionResponse{
		JobID:  uuid.NewString(),
		Action: "cache.invalidate",
		Status: "completed",
		Time:   models.Timestamp(time.Now()),
	})
}

// TriggerRefresh handles POST /v1/admin/refresh.
func (h *AdminHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if h.refresh == nil {
		response.ServiceUnavailable(w, r, "refresh worker not configured")
		return
	}

	jobID := uuid.NewString()
	if err := h.refresh(r.Context(), jobID); err != nil {
		h.logger.Error().Err(err).
			Str("job_id", jobID).
			Msg("enqueueing refresh failed")
		response.ServiceUnavailable(w, r, "could not enqueue refresh")
		return
	}

	h.logger.Info().
		Str("service", middleware.GetService(r.Context())).
		Str("job_id", jobID).
		Msg("refresh enqueued")

	response.Accepted(w, r, "", models.AdminActionResponse{
		JobID:  jobID,
		Action: "locations.refresh",
		Status: "enqueued",
		Time:   models.Timestamp(time.Now()),
	})
}
