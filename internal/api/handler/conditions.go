package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/api/models"
	"github.com/skyforecaster/skyforecaster/internal/api/response"
	"github.com/skyforecaster/skyforecaster/internal/aqi"
	"github.com/skyforecaster/skyforecaster/internal/observations"
)

// ReadingProvider fetches the current observation for a location.
type ReadingProvider interface {
	GetReading(ctx context.Context, lat, lon float64) (*observations.Reading, error)
}

// ConditionsHandler serves current air quality conditions.
type ConditionsHandler struct {
	readings ReadingProvider
	resolver LocationResolver
	logger   zerolog.Logger
}

// NewConditionsHandler creates a new ConditionsHandler.
func NewConditionsHandler(readings ReadingProvider, resolver LocationResolver, logger zerolog.Logger) *ConditionsHandler {
	return &ConditionsHandler{
		readings: readings,
		resolver: resolver,
		logger:   logger,
	}
}

// GetConditions handles GET /v1/conditions.
func (h *ConditionsHandler) GetConditions(w http.ResponseWriter, r *http.Request) {
	lat, lon, display, ok := resolveLocation(w, r, h.resolver)
	if !ok {
		return
	}

	reading, err := h.readings.GetReading(r.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, observations.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "coordinates out of range", nil)
			return
		}
		h.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("fetching conditions failed")
		response.ServiceUnavailable(w, r, "observations unavailable")
		return
	}

	result, err := aqi.Compute(reading.Concentrations)
	if err != nil {
		if errors.Is(err, aqi.ErrInsufficientData) {
			response.NotFound(w, r, "no pollutant data for location")
			return
		}
		h.logger.Error().Err(err).Msg("computing index failed")
		response.InternalError(w, r, "index computation failed")
		return
	}

	resp := models.ConditionsResponse{
		Location: models.LocationRef{
			Point:       models.Point{Lat: reading.Lat, Lon: reading.Lon},
			DisplayName: display,
		},
		AQI:        toAQISummary(result),
		Pollutants: toPollutants(reading.Concentrations),
		Timestamp:  models.Timestamp(reading.Timestamp),
		Source:     reading.Source,
	}
	if reading.Weather != nil {
		resp.Weather = &models.Weather{
			Temperature:   reading.Weather.Temperature,
			Humidity:      reading.Weather.Humidity,
			Pressure:      reading.Weather.Pressure,
			WindSpeed:     reading.Weather.WindSpeed,
			WindDirection: reading.Weather.WindDirection,
		}
	}

	response.JSON(w, r, http.StatusOK, resp)
}
