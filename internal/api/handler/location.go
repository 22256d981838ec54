package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/api/models"
	"github.com/skyforecaster/skyforecaster/internal/api/response"
	"github.com/skyforecaster/skyforecaster/internal/geocoding"
)

// defaultSearchLimit bounds /v1/locations/search results.
const defaultSearchLimit = 10

// LocationHandler serves location search.
type LocationHandler struct {
	resolver LocationResolver
	logger   zerolog.Logger
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(resolver LocationResolver, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// Search handles GET /v1/locations/search.
func (h *LocationHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, r, "query parameter required", []models.FieldError{
			{Field: "q", Message: "search query is required", Code: "required"},
		})
		return
	}

	results, err := h.resolver.Search(r.Context(), query, defaultSearchLimit)
	if err != nil {
		if errors.Is(err, geocoding.ErrEmptyQuery) {
			response.BadRequest(w, r, "empty location query", nil)
			return
		}
		h.logger.Error().Err(err).Str("query", query).Msg("location search failed")
		response.ServiceUnavailable(w, r, "geocoding unavailable")
		return
	}

	resp := models.LocationSearchResponse{
		Query:   query,
		Results: make([]models.LocationResult, 0, len(results)),
		Count:   len(results),
	}
	for _, loc := range results {
		resp.Results = append(resp.Results, models.LocationResult{
			Point:       models.Point{Lat: loc.Lat, Lon: loc.Lon},
			DisplayName: loc.DisplayName,
			Type:        loc.Type,
			Importance:  loc.Importance,
			City:        loc.Address.City,
			Country:     loc.Address.Country,
		})
	}

	response.JSON(w, r, http.StatusOK, resp)
}
