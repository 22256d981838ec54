package geocoding

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/observations"
)

// Geocoder defines the interface for geocoding providers.
type Geocoder interface {
	// Geocode resolves a free-form query to the best matching location.
	Geocode(ctx context.Context, query string) (*Location, error)

	// ReverseGeocode resolves coordinates to the containing place.
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error)

	// Search returns up to limit locations matching the query.
	Search(ctx context.Context, query string, limit int) ([]Location, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	// Geocoder is the geocoding provider (required).
	Geocoder Geocoder

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long resolved locations are cached (default: 24h).
	// Place names move far less often than air does.
	CacheTTL time.Duration
}

// Service resolves location input with caching in front of a Geocoder.
type Service struct {
	geocoder Geocoder
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedLocation
}

type cachedLocation struct {
	location  *Location
	expiresAt time.Time
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &Service{
		geocoder: cfg.Geocoder,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		cache:    make(map[string]*cachedLocation),
	}
}

// Resolve turns free-form location input into a Location.
//
// Input of the form "lat,lon" is parsed directly and reverse geocoded for a
// display name; if reverse geocoding fails the bare coordinates are still
// returned. Anything else is forward geocoded.
func (s *Service) Resolve(ctx context.Context, input string) (*Location, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyQuery
	}

	if lat, lon, ok := parseCoordinates(input); ok {
		if err := observations.ValidateCoordinates(lat, lon); err != nil {
			return nil, err
		}

		loc, err := s.reverse(ctx, lat, lon)
		if err != nil {
			s.logger.Warn().Err(err).
				Float64("lat", lat).
				Float64("lon", lon).
				Msg("reverse geocoding failed, returning bare coordinates")
			return &Location{
				Lat:         lat,
				Lon:         lon,
				DisplayName: fmt.Sprintf("%g, %g", lat, lon),
				Source:      "coordinates",
			}, nil
		}
		return loc, nil
	}

	return s.forward(ctx, input)
}

// Search returns up to limit locations matching a free-form query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 10
	}

	results, err := s.geocoder.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error().Err(err).
			Str("query", query).
			Str("provider", s.geocoder.Name()).
			Msg("location search failed")
		return nil, ErrProviderUnavailable
	}

	return results, nil
}

func (s *Service) forward(ctx context.Context, query string) (*Location, error) {
	key := "q:" + strings.ToLower(query)
	if loc := s.cached(key); loc != nil {
		return loc, nil
	}

	loc, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		s.logger.Error().Err(err).
			Str("query", query).
			Str("provider", s.geocoder.Name()).
			Msg("geocoding failed")
		return nil, ErrProviderUnavailable
	}

	s.store(key, loc)
	return loc, nil
}

func (s *Service) reverse(ctx context.Context, lat, lon float64) (*Location, error) {
	key := fmt.Sprintf("r:%.4f:%.4f", lat, lon)
	if loc := s.cached(key); loc != nil {
		return loc, nil
	}

	loc, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	s.store(key, loc)
	return loc, nil
}

func (s *Service) cached(key string) *Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.cache[key]; ok && time.Now().Before(c.expiresAt) {
		return c.location
	}
	return nil
}

func (s *Service) store(key string, loc *Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = &cachedLocation{
		location:  loc,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
}

// InvalidateCache clears all cached locations.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedLocation)
}

// parseCoordinates attempts to read input as a "lat,lon" pair.
func parseCoordinates(input string) (lat, lon float64, ok bool) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}

	return lat, lon, true
}
