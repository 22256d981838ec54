// Package observations provides access to current pollutant readings for a
// location, with caching and chained provider fallback.
package observations

import (
	"errors"
	"time"

	"github.com/skyforecaster/skyforecaster/internal/aqi"
)

// Provider errors.
var (
	ErrProviderUnavailable = errors.New("observation provider unavailable")
	ErrNoDataForLocation   = errors.New("no observations for location")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Reading is a point-in-time pollutant measurement set for a location.
type Reading struct {
	// Location coordinates.
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`

	// Concentrations holds the measured pollutant values. Units are
	// µg/m³ except CO in mg/m³; unmeasured pollutants are nil.
	Concentrations aqi.Concentrations `json:"pollutants"`

	// Weather is the co-located weather observation, if the provider
	// supplies one.
	Weather *Weather `json:"weather,omitempty"`

	// Timestamp is when the reading applies.
	Timestamp time.Time `json:"timestamp"`

	// Source identifies the data provenance (provider name or
	// "synthetic"). Informational only; it never affects computation.
	Source string `json:"source"`
}

// Weather holds the meteorological fields attached to a reading.
type Weather struct {
	Temperature   float64 `json:"temperature"`   // °C
	Humidity      float64 `json:"humidity"`      // percent
	Pressure      float64 `json:"pressure"`      // hPa
	WindSpeed     float64 `json:"windSpeed"`     // m/s
	WindDirection float64 `json:"windDirection"` // degrees
}

// ValidateCoordinates checks that a lat/lon pair is within geographic range.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
