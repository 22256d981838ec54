package models

// LocationSearchResponse is the result of a location search.
type LocationSearchResponse struct {
	Query   string           `json:"query"`
	Results []LocationResult `json:"results"`
	Count   int              `json:"count"`
}

// LocationResult is one matching place.
type LocationResult struct {
	Point       Point   `json:"point"`
	DisplayName string  `json:"displayName"`
	Type        string  `json:"type,omitempty"`
	Importance  float64 `json:"importance,omitempty"`
	City        string  `json:"city,omitempty"`
	Country     string  `json:"country,omitempty"`
}

// AdminActionResponse reports the outcome of an admin operation.
type AdminActionResponse struct {
	JobID   string    `json:"jobId"`
	Action  string    `json:"action"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	Time    Timestamp `json:"time"`
}
