// Package openaq implements an observations.Provider backed by the OpenAQ
// measurements API.
package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/aqi"
	"github.com/skyforecaster/skyforecaster/internal/observations"
	"github.com/skyforecaster/skyforecaster/internal/provider/resilience"
)

const (
	// ProviderName identifies this observation provider.
	ProviderName = "openaq"

	// DefaultBaseURL is the OpenAQ API base URL.
	DefaultBaseURL = "https://api.openaq.org/v2"

	// DefaultRadiusMeters is the station search radius around the
	// requested point.
	DefaultRadiusMeters = 10000
)

// Molecular weights for gas-phase unit conversion, g/mol.
var molecularWeights = map[string]float64{
	"no2": 46.01,
	"o3":  48.00,
	"co":  28.01,
	"so2": 64.07,
}

// molarVolume is litres per mole at 25°C and 1 atm.
const molarVolume = 24.45

// ClientConfig holds configuration for the OpenAQ client.
type ClientConfig struct {
	// APIKey is the OpenAQ API key (optional; raises rate limits).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenAQ v2).
	BaseURL string

	// RadiusMeters is the station search radius (optional).
	RadiusMeters int

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenAQ API client.
type Client struct {
	apiKey     string
	baseURL    string
	radius     int
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new OpenAQ client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	radius := cfg.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("openaq"))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		radius:     radius,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetReading fetches the latest measurements near a location and folds them
// into a single reading.
func (c *Client) GetReading(ctx context.Context, lat, lon float64) (*observations.Reading, error) {
	url := fmt.Sprintf("%s/measurements?coordinates=%.6f,%.6f&radius=%d&limit=100&sort=desc",
		c.baseURL, lat, lon, c.radius)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var oaqResp measurementsResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaqResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(oaqResp.Results) == 0 {
		return nil, observations.ErrNoDataForLocation
	}

	return c.toReading(oaqResp.Results, lat, lon), nil
}

// toReading folds per-station measurements into one reading, keeping the
// newest value per pollutant and normalizing units.
func (c *Client) toReading(results []measurement, lat, lon float64) *observations.Reading {
	reading := &observations.Reading{
		Lat:       lat,
		Lon:       lon,
		Timestamp: time.Now().UTC(),
		Source:    ProviderName,
	}

	seen := make(map[aqi.Pollutant]time.Time)
	var latest time.Time

	for _, m := range results {
		p := aqi.Pollutant(m.Parameter)
		if !validPollutant(p) || m.Value == nil {
			continue
		}

		ts, err := time.Parse(time.RFC3339, m.Date.UTC)
		if err != nil {
			ts = time.Time{}
		}
		if prev, ok := seen[p]; ok && !ts.After(prev) {
			continue
		}
		seen[p] = ts
		if ts.After(latest) {
			latest = ts
		}

		reading.Concentrations.Set(p, normalizeUnit(m.Parameter, *m.Value, m.Unit))
	}

	if !latest.IsZero() {
		reading.Timestamp = latest
	}

	return reading
}

// normalizeUnit converts measured values to µg/m³ (mg/m³ for CO). Values
// reported in ppm use the ideal gas conversion at 25°C and 1 atm.
func normalizeUnit(parameter string, value float64, unit string) float64 {
	switch unit {
	case "ppm":
		if mw, ok := molecularWeights[parameter]; ok {
			value = value * mw * 1000 / molarVolume
		}
	}
	if parameter == "co" {
		// CO is carried in mg/m³.
		return value / 1000
	}
	return value
}

func validPollutant(p aqi.Pollutant) bool {
	for _, known := range aqi.Pollutants {
		if p == known {
			return true
		}
	}
	return false
}

// OpenAQ API response structures.

type measurementsResponse struct {
	Results []measurement `json:"results"`
}

type measurement struct {
	Parameter string   `json:"parameter"`
	Value     *float64 `json:"value"`
	Unit      string   `json:"unit"`
	Date      struct {
		UTC string `json:"utc"`
	} `json:"date"`
	Coordinates struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
}
