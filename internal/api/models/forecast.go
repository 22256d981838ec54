package models

// ForecastResponse is an ordered forecast series for a location.
type ForecastResponse struct {
	Location     LocationRef     `json:"location"`
	GeneratedAt  Timestamp       `json:"generatedAt"`
	HorizonHours int             `json:"horizonHours"`
	StepHours    int             `json:"stepHours"`
	BasedOn      string          `json:"basedOn"`
	Predictions  []ForecastPoint `json:"predictions"`
}

// ForecastPoint is one projected reading in a forecast series.
type ForecastPoint struct {
	OffsetHours int        `json:"offsetHours"`
	Timestamp   Timestamp  `json:"timestamp"`
	AQI         AQISummary `json:"aqi"`
	Pollutants  Pollutants `json:"pollutants"`
}
