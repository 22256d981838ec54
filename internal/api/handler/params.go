// Package handler provides HTTP handlers for the Sky Forecaster API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/skyforecaster/skyforecaster/internal/api/models"
	"github.com/skyforecaster/skyforecaster/internal/api/response"
	"github.com/skyforecaster/skyforecaster/internal/aqi"
	"github.com/skyforecaster/skyforecaster/internal/geocoding"
	"github.com/skyforecaster/skyforecaster/internal/observations"
)

// LocationResolver resolves free-form location input to coordinates.
type LocationResolver interface {
	Resolve(ctx context.Context, input string) (*geocoding.Location, error)
	Search(ctx context.Context, query string, limit int) ([]geocoding.Location, error)
}

// resolveLocation extracts the request's location from lat/lon query
// parameters, or failing that from a free-form `location` parameter. It
// writes the error response itself and returns ok=false on failure.
func resolveLocation(w http.ResponseWriter, r *http.Request, resolver LocationResolver) (lat, lon float64, display string, ok bool) {
	q := r.URL.Query()

	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr != "" || lonStr != "" {
		var errs []models.FieldError
		lat, lon, errs = parseCoordinateParams(latStr, lonStr)
		if len(errs) > 0 {
			response.BadRequest(w, r, "invalid coordinates", errs)
			return 0, 0, "", false
		}
		return lat, lon, "", true
	}

	input := q.Get("location")
	if input == "" {
		response.BadRequest(w, r, "location or coordinates required", []models.FieldError{
			{Field: "location", Message: "provide lat/lon or a location string", Code: "required"},
		})
		return 0, 0, "", false
	}

	loc, err := resolver.Resolve(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, geocoding.ErrNotFound):
			response.NotFound(w, r, "location not found")
		case errors.Is(err, observations.ErrInvalidCoordinates):
			response.BadRequest(w, r, "coordinates out of range", nil)
		case errors.Is(err, geocoding.ErrEmptyQuery):
			response.BadRequest(w, r, "empty location query", nil)
		default:
			response.ServiceUnavailable(w, r, "geocoding unavailable")
		}
		return 0, 0, "", false
	}

	return loc.Lat, loc.Lon, loc.DisplayName, true
}

func parseCoordinateParams(latStr, lonStr string) (lat, lon float64, errs []models.FieldError) {
	var err error

	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "lat", Message: "must be a number", Code: "invalid"})
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "lon", Message: "must be a number", Code: "invalid"})
	}
	if len(errs) > 0 {
		return 0, 0, errs
	}

	if lat < -90 || lat > 90 {
		errs = append(errs, models.FieldError{Field: "lat", Message: "must be between -90 and 90", Code: "range"})
	}
	if lon < -180 || lon > 180 {
		errs = append(errs, models.FieldError{Field: "lon", Message: "must be between -180 and 180", Code: "range"})
	}
	return lat, lon, errs
}

// toPollutants maps domain concentrations to the API shape.
func toPollutants(c aqi.Concentrations) models.Pollutants {
	return models.Pollutants{
		PM25: c.PM25,
		PM10: c.PM10,
		NO2:  c.NO2,
		O3:   c.O3,
		CO:   c.CO,
		SO2:  c.SO2,
	}
}

// toConcentrations maps API pollutants to the domain shape.
func toConcentrations(p models.Pollutants) aqi.Concentrations {
	return aqi.Concentrations{
		PM25: p.PM25,
		PM10: p.PM10,
		NO2:  p.NO2,
		O3:   p.O3,
		CO:   p.CO,
		SO2:  p.SO2,
	}
}

// toAQISummary maps an index result to the API shape.
func toAQISummary(result aqi.Result) models.AQISummary {
	subIndices := make(map[string]int, len(result.SubIndices))
	for p, v := range result.SubIndices {
		subIndices[string(p)] = v
	}

	return models.AQISummary{
		Value:            result.Value,
		PrimaryPollutant: string(result.PrimaryPollutant),
		Category:         string(result.Category),
		Color:            result.Category.Color(),
		SubIndices:       subIndices,
	}
}
