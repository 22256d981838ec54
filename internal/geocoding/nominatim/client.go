// Package nominatim implements a geocoding.Geocoder backed by the
// OpenStreetMap Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/geocoding"
	"github.com/skyforecaster/skyforecaster/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// userAgent is sent on every request per the Nominatim usage policy.
	userAgent = "SkyForecaster/1.0"
)

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public
	// OpenStreetMap instance).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim API client.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("nominatim"))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Geocode resolves a free-form query to the best matching location.
func (c *Client) Geocode(ctx context.Context, query string) (*geocoding.Location, error) {
	results, err := c.search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, geocoding.ErrNotFound
	}
	return &results[0], nil
}

// Search returns up to limit locations matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]geocoding.Location, error) {
	return c.search(ctx, query, limit)
}

// ReverseGeocode resolves coordinates to the containing place.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*geocoding.Location, error) {
	reqURL := fmt.Sprintf("%s/reverse?lat=%.6f&lon=%.6f&format=json&addressdetails=1",
		c.baseURL, lat, lon)

	var result searchResult
	if err := c.get(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, geocoding.ErrNotFound
	}

	loc := result.toLocation()
	// Reverse results echo the queried point, not the place centroid.
	loc.Lat = lat
	loc.Lon = lon
	return &loc, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]geocoding.Location, error) {
	reqURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=%d&addressdetails=1",
		c.baseURL, url.QueryEscape(query), limit)

	var results []searchResult
	if err := c.get(ctx, reqURL, &results); err != nil {
		return nil, err
	}

	locations := make([]geocoding.Location, 0, len(results))
	for _, r := range results {
		locations = append(locations, r.toLocation())
	}
	return locations, nil
}

func (c *Client) get(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Nominatim API response structures. Coordinates arrive as strings.

type searchResult struct {
	PlaceID     int64   `json:"place_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
	Error       string  `json:"error"`
	Address     struct {
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

func (r *searchResult) toLocation() geocoding.Location {
	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lon, _ := strconv.ParseFloat(r.Lon, 64)

	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}

	return geocoding.Location{
		Lat:         lat,
		Lon:         lon,
		DisplayName: r.DisplayName,
		PlaceID:     r.PlaceID,
		Type:        r.Type,
		Importance:  r.Importance,
		Address: geocoding.Address{
			Road:        r.Address.Road,
			City:        city,
			State:       r.Address.State,
			Postcode:    r.Address.Postcode,
			Country:     r.Address.Country,
			CountryCode: r.Address.CountryCode,
		},
		Source: ProviderName,
	}
}
