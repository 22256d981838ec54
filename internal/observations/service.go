package observations

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for air quality observation providers.
type Provider interface {
	// GetReading fetches the current reading for a location.
	GetReading(ctx context.Context, lat, lon float64) (*Reading, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the observation service.
type ServiceConfig struct {
	// Providers are tried in order until one returns a reading. At least
	// one is required; the last entry is usually the synthetic fallback.
	Providers []Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache readings (default: 10 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.1).
	// Points within the same grid cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data when all providers fail
	// (default: 1 hour).
	StaleIfErrorTTL time.Duration
}

// Service provides current observations with caching and provider fallback.
type Service struct {
	providers       []Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration

	mu              sync.RWMutex
	cache           map[string]*cachedReading
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedReading struct {
	reading   *Reading
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new observation service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.1 // ~11km at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 1 * time.Hour
	}

	return &Service{
		providers:       cfg.Providers,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedReading),
		cleanupInterval: 5 * time.Minute,
	}
}

// GetReading returns the current reading for a location.
// Uses cached data if available and not expired.
func (s *Service) GetReading(ctx context.Context, lat, lon float64) (*Reading, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(lat, lon)

	// Check cache
	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.reading, nil
	}
	s.mu.RUnlock()

	return s.fetchReading(ctx, lat, lon, cacheKey)
}

// fetchReading tries each provider in order and updates the cache with the
// first successful result.
func (s *Service) fetchReading(ctx context.Context, lat, lon float64, cacheKey string) (*Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		return cached.reading, nil
	}

	for _, p := range s.providers {
		s.logger.Debug().
			Float64("lat", lat).
			Float64("lon", lon).
			Str("provider", p.Name()).
			Msg("fetching observations from provider")

		reading, err := p.GetReading(ctx, lat, lon)
		if err != nil {
			s.logger.Warn().Err(err).
				Float64("lat", lat).
				Float64("lon", lon).
				Str("provider", p.Name()).
				Msg("observation provider failed, trying next")
			continue
		}

		now := time.Now()
		s.cache[cacheKey] = &cachedReading{
			reading:   reading,
			fetchedAt: now,
			expiresAt: now.Add(s.cacheTTL),
		}

		s.cleanupIfNeeded()

		return reading, nil
	}

	s.logger.Error().
		Float64("lat", lat).
		Float64("lon", lon).
		Msg("all observation providers failed")

	// Check for stale data
	if cached, ok := s.cache[cacheKey]; ok {
		if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale observations due to provider errors")
			return cached.reading, nil
		}
	}

	return nil, ErrProviderUnavailable
}

// cacheKey generates a cache key for a location.
// Groups nearby points into grid cells to reduce API calls.
func (s *Service) cacheKey(lat, lon float64) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLon)
}

// cleanupIfNeeded removes expired entries if cleanup interval has passed.
// Caller must hold the write lock.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired observation cache entries")
	}
}

// InvalidateCache clears all cached readings.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedReading)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		}
	}

	providers := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		providers = append(providers, p.Name())
	}

	return CacheStats{
		Entries:      len(s.cache),
		FreshEntries: fresh,
		Providers:    providers,
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries      int
	FreshEntries int
	Providers    []string
}
