package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/api/models"
	"github.com/skyforecaster/skyforecaster/internal/api/response"
	"github.com/skyforecaster/skyforecaster/internal/aqi"
)

// AQIHandler serves direct index calculations.
type AQIHandler struct {
	logger zerolog.Logger
}

// NewAQIHandler creates a new AQIHandler.
func NewAQIHandler(logger zerolog.Logger) *AQIHandler {
	return &AQIHandler{logger: logger}
}

// Calculate handles POST /v1/aqi:calculate.
func (h *AQIHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req models.AQICalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	result, err := aqi.Compute(toConcentrations(req.Pollutants))
	if err != nil {
		switch {
		case errors.Is(err, aqi.ErrInsufficientData):
			response.BadRequest(w, r, "at least one pollutant is required", []models.FieldError{
				{Field: "pollutants", Message: "at least one pollutant is required", Code: "required"},
			})
		case errors.Is(err, aqi.ErrInvalidConcentration):
			response.BadRequest(w, r, "concentrations must be non-negative", []models.FieldError{
				{Field: "pollutants", Message: "concentrations must be non-negative", Code: "range"},
			})
		default:
			h.logger.Error().Err(err).Msg("index computation failed")
			response.InternalError(w, r, "index computation failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.AQICalculateResponse{
		AQI:        toAQISummary(result),
		Pollutants: req.Pollutants,
	})
}
