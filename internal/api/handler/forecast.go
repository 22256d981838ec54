package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/api/models"
	"github.com/skyforecaster/skyforecaster/internal/api/response"
	"github.com/skyforecaster/skyforecaster/internal/aqi"
	"github.com/skyforecaster/skyforecaster/internal/forecast"
	"github.com/skyforecaster/skyforecaster/internal/history"
)

// TrendProvider derives a per-pollutant trend from stored history.
type TrendProvider interface {
	Trend(ctx context.Context, lat, lon float64) (forecast.Trend, error)
}

// ForecastHandler serves air quality forecasts.
type ForecastHandler struct {
	readings  ReadingProvider
	resolver  LocationResolver
	trends    TrendProvider
	generator *forecast.Generator
	logger    zerolog.Logger
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(readings ReadingProvider, resolver LocationResolver, trends TrendProvider, generator *forecast.Generator, logger zerolog.Logger) *ForecastHandler {
	return &ForecastHandler{
		readings:  readings,
		resolver:  resolver,
		trends:    trends,
		generator: generator,
		logger:    logger,
	}
}

// GetForecast handles GET /v1/forecast.
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	lat, lon, display, ok := resolveLocation(w, r, h.resolver)
	if !ok {
		return
	}

	hours, errs := parseIntParam(r, "hours", 24)
	step, stepErrs := parseIntParam(r, "step", forecast.DefaultStepHours)
	errs = append(errs, stepErrs...)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid forecast parameters", errs)
		return
	}

	reading, err := h.readings.GetReading(r.Context(), lat, lon)
	if err != nil {
		h.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("fetching base reading failed")
		response.ServiceUnavailable(w, r, "observations unavailable")
		return
	}

	// Trends are best effort; no history just means no bias.
	var trend forecast.Trend
	if h.trends != nil {
		trend, err = h.trends.Trend(r.Context(), lat, lon)
		if err != nil && !errors.Is(err, history.ErrNoHistory) {
			h.logger.Warn().Err(err).Msg("trend lookup failed, forecasting without trend")
		}
	}

	series, err := h.generator.GenerateWithTrend(reading.Concentrations, reading.Timestamp, hours, step, trend)
	if err != nil {
		switch {
		case errors.Is(err, forecast.ErrInvalidHorizon):
			response.BadRequest(w, r, "hours must be 1-168 and step positive", []models.FieldError{
				{Field: "hours", Message: "must be between 1 and 168", Code: "range"},
			})
		case errors.Is(err, aqi.ErrInsufficientData):
			response.NotFound(w, r, "no pollutant data for location")
		default:
			h.logger.Error().Err(err).Msg("forecast generation failed")
			response.InternalError(w, r, "forecast generation failed")
		}
		return
	}

	resp := models.ForecastResponse{
		Location: models.LocationRef{
			Point:       models.Point{Lat: reading.Lat, Lon: reading.Lon},
			DisplayName: display,
		},
		GeneratedAt:  models.Timestamp(series.GeneratedAt),
		HorizonHours: series.HorizonHours,
		StepHours:    series.StepHours,
		BasedOn:      reading.Source,
		Predictions:  make([]models.ForecastPoint, 0, len(series.Points)),
	}

	for _, pt := range series.Points {
		resp.Predictions = append(resp.Predictions, models.ForecastPoint{
			OffsetHours: pt.OffsetHours,
			Timestamp:   models.Timestamp(pt.Timestamp),
			AQI:         toAQISummary(pt.AQI),
			Pollutants:  toPollutants(pt.Concentrations),
		})
	}

	response.JSON(w, r, http.StatusOK, resp)
}

func parseIntParam(r *http.Request, name string, def int) (int, []models.FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, []models.FieldError{{Field: name, Message: "must be an integer", Code: "invalid"}}
	}
	return v, nil
}
