package models

// ConditionsResponse is the current air quality for a location.
type ConditionsResponse struct {
	Location   LocationRef `json:"location"`
	AQI        AQISummary  `json:"aqi"`
	Pollutants Pollutants  `json:"pollutants"`
	Weather    *Weather    `json:"weather,omitempty"`
	Timestamp  Timestamp   `json:"timestamp"`
	Source     string      `json:"source"`
}

// LocationRef identifies the location a response applies to.
type LocationRef struct {
	Point       Point  `json:"point"`
	DisplayName string `json:"displayName,omitempty"`
}

// AQICalculateRequest is the body for POST /v1/aqi:calculate.
type AQICalculateRequest struct {
	Pollutants Pollutants `json:"pollutants"`
}

// AQICalculateResponse echoes the input concentrations with the computed index.
type AQICalculateResponse struct {
	AQI        AQISummary `json:"aqi"`
	Pollutants Pollutants `json:"pollutants"`
}
