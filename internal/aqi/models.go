// Package aqi computes US EPA Air Quality Index values from pollutant
// concentrations.
package aqi

import "errors"

// Calculation errors.
var (
	ErrInsufficientData     = errors.New("no pollutant concentrations available")
	ErrInvalidConcentration = errors.New("negative pollutant concentration")
)

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantPM25 Pollutant = "pm25"
	PollutantPM10 Pollutant = "pm10"
	PollutantNO2  Pollutant = "no2"
	PollutantO3   Pollutant = "o3"
	PollutantCO   Pollutant = "co"
	PollutantSO2  Pollutant = "so2"
)

// Pollutants lists all supported pollutants in calculation order.
// The order is the tie-break for primary pollutant selection.
var Pollutants = []Pollutant{
	PollutantPM25,
	PollutantPM10,
	PollutantNO2,
	PollutantO3,
	PollutantCO,
	PollutantSO2,
}

// Concentrations holds a point-in-time set of pollutant concentrations.
// Values are in µg/m³ except CO, which is in mg/m³. A nil field means
// the pollutant was not measured.
type Concentrations struct {
	PM25 *float64 `json:"pm25,omitempty"`
	PM10 *float64 `json:"pm10,omitempty"`
	NO2  *float64 `json:"no2,omitempty"`
	O3   *float64 `json:"o3,omitempty"`
	CO   *float64 `json:"co,omitempty"`
	SO2  *float64 `json:"so2,omitempty"`
}

// Get returns the concentration for a pollutant, or nil if unmeasured.
func (c *Concentrations) Get(p Pollutant) *float64 {
	switch p {
	case PollutantPM25:
		return c.PM25
	case PollutantPM10:
		return c.PM10
	case PollutantNO2:
		return c.NO2
	case PollutantO3:
		return c.O3
	case PollutantCO:
		return c.CO
	case PollutantSO2:
		return c.SO2
	}
	return nil
}

// Set stores the concentration for a pollutant.
func (c *Concentrations) Set(p Pollutant, value float64) {
	v := value
	switch p {
	case PollutantPM25:
		c.PM25 = &v
	case PollutantPM10:
		c.PM10 = &v
	case PollutantNO2:
		c.NO2 = &v
	case PollutantO3:
		c.O3 = &v
	case PollutantCO:
		c.CO = &v
	case PollutantSO2:
		c.SO2 = &v
	}
}

// IsEmpty reports whether no pollutant has a measured value.
func (c *Concentrations) IsEmpty() bool {
	for _, p := range Pollutants {
		if c.Get(p) != nil {
			return false
		}
	}
	return true
}

// Category is the linguistic AQI category.
type Category string

const (
	CategoryGood          Category = "Good"
	CategoryModerate      Category = "Moderate"
	CategoryUSG           Category = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy     Category = "Unhealthy"
	CategoryVeryUnhealthy Category = "Very Unhealthy"
	CategoryHazardous     Category = "Hazardous"
)

// CategoryFor maps an AQI value to its category using the fixed EPA
// breakpoints (0-50, 51-100, 101-150, 151-200, 201-300, 301+).
func CategoryFor(value int) Category {
	switch {
	case value <= 50:
		return CategoryGood
	case value <= 100:
		return CategoryModerate
	case value <= 150:
		return CategoryUSG
	case value <= 200:
		return CategoryUnhealthy
	case value <= 300:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}

// Color returns the conventional EPA hex color for the category.
func (c Category) Color() string {
	switch c {
	case CategoryGood:
		return "#00e400"
	case CategoryModerate:
		return "#ffff00"
	case CategoryUSG:
		return "#ff7e00"
	case CategoryUnhealthy:
		return "#ff0000"
	case CategoryVeryUnhealthy:
		return "#8f3f97"
	default:
		return "#7e0023"
	}
}

// Result is the outcome of an AQI calculation.
type Result struct {
	// Value is the overall AQI, the maximum of all computable sub-indices.
	// Capped at 500 for concentrations above the top breakpoint.
	Value int `json:"value"`

	// PrimaryPollutant is the pollutant that produced the maximum sub-index.
	PrimaryPollutant Pollutant `json:"primaryPollutant"`

	// Category is the linguistic category derived from Value.
	Category Category `json:"category"`

	// SubIndices holds the per-pollutant sub-index for each measured pollutant.
	SubIndices map[Pollutant]int `json:"subIndices,omitempty"`
}
