// Package openweathermap implements an observations.Provider backed by the
// OpenWeatherMap air pollution and current weather APIs.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/observations"
	"github.com/skyforecaster/skyforecaster/internal/provider/resilience"
)

const (
	// ProviderName identifies this observation provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("openweathermap"))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetReading fetches pollutant concentrations and, best effort, the current
// weather for a location. A weather failure never fails the reading.
func (c *Client) GetReading(ctx context.Context, lat, lon float64) (*observations.Reading, error) {
	reading, err := c.getAirPollution(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	weather, err := c.getCurrentWeather(ctx, lat, lon)
	if err != nil {
		c.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("weather lookup failed, returning pollutants only")
	} else {
		reading.Weather = weather
	}

	return reading, nil
}

func (c *Client) getAirPollution(ctx context.Context, lat, lon float64) (*observations.Reading, error) {
	url := fmt.Sprintf("%s/air_pollution?lat=%.6f&lon=%.6f&appid=%s",
		c.baseURL, lat, lon, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var owmResp airPollutionResponse
	if err := json.NewDecoder(resp.Body).Decode(&owmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(owmResp.List) == 0 {
		return nil, observations.ErrNoDataForLocation
	}

	return c.toReading(&owmResp.List[0], lat, lon), nil
}

func (c *Client) getCurrentWeather(ctx context.Context, lat, lon float64) (*observations.Weather, error) {
	url := fmt.Sprintf("%s/weather?lat=%.6f&lon=%.6f&appid=%s&units=metric",
		c.baseURL, lat, lon, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var owmResp currentWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &observations.Weather{
		Temperature:   owmResp.Main.Temp,
		Humidity:      owmResp.Main.Humidity,
		Pressure:      owmResp.Main.Pressure,
		WindSpeed:     owmResp.Wind.Speed,
		WindDirection: owmResp.Wind.Deg,
	}, nil
}

// toReading converts an OpenWeatherMap pollution entry to the domain model.
// Components arrive in µg/m³; CO is carried in mg/m³ downstream.
func (c *Client) toReading(entry *airPollutionEntry, lat, lon float64) *observations.Reading {
	reading := &observations.Reading{
		Lat:       lat,
		Lon:       lon,
		Timestamp: time.Unix(entry.Dt, 0).UTC(),
		Source:    ProviderName,
	}

	comp := entry.Components
	if comp.PM25 != nil {
		reading.Concentrations.PM25 = comp.PM25
	}
	if comp.PM10 != nil {
		reading.Concentrations.PM10 = comp.PM10
	}
	if comp.NO2 != nil {
		reading.Concentrations.NO2 = comp.NO2
	}
	if comp.O3 != nil {
		reading.Concentrations.O3 = comp.O3
	}
	if comp.CO != nil {
		co := *comp.CO / 1000
		reading.Concentrations.CO = &co
	}
	if comp.SO2 != nil {
		reading.Concentrations.SO2 = comp.SO2
	}

	return reading
}

// OpenWeatherMap API response structures.

type airPollutionResponse struct {
	List []airPollutionEntry `json:"list"`
}

type airPollutionEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI int `json:"aqi"`
	} `json:"main"`
	Components struct {
		CO   *float64 `json:"co"`
		NO2  *float64 `json:"no2"`
		O3   *float64 `json:"o3"`
		SO2  *float64 `json:"so2"`
		PM25 *float64 `json:"pm2_5"`
		PM10 *float64 `json:"pm10"`
	} `json:"components"`
}

type currentWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
}
