// Package worker provides background job processing for Sky Forecaster.
package worker

import (
	"time"
)

// RefreshTarget represents a geographic region to refresh.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon coordinates to refresh.
	// Typically the centers of major metropolitan areas.
	Points []Point

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// RefreshConfig holds configuration for the observation refresh job.
type RefreshConfig struct {
	// Targets are the geographic regions to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// RecordHistory appends each refreshed reading to the history store.
	// Default: true
	RecordHistory bool

	// PruneHistory deletes expired history records after each run.
	// Default: true
	PruneHistory bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:       DefaultRefreshTargets(),
		Concurrency:   3,
		Timeout:       30 * time.Second,
		RecordHistory: true,
		PruneHistory:  true,
	}
}

// DefaultRefreshTargets returns the default refresh targets: large
// metropolitan areas whose readings get requested most.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "New York",
			Priority: 1,
			Points: []Point{
				{Lat: 40.7128, Lon: -74.0060}, // Manhattan
				{Lat: 40.6782, Lon: -73.9442}, // Brooklyn
			},
		},
		{
			Name:     "Los Angeles",
			Priority: 1,
			Points: []Point{
				{Lat: 34.0522, Lon: -118.2437}, // Downtown
				{Lat: 34.1478, Lon: -118.1445}, // Pasadena
			},
		},
		{
			Name:     "Chicago",
			Priority: 1,
			Points: []Point{
				{Lat: 41.8781, Lon: -87.6298},
			},
		},
		{
			Name:     "Houston",
			Priority: 2,
			Points: []Point{
				{Lat: 29.7604, Lon: -95.3698},
			},
		},
		{
			Name:     "London",
			Priority: 1,
			Points: []Point{
				{Lat: 51.5074, Lon: -0.1278},
			},
		},
		{
			Name:     "Paris",
			Priority: 2,
			Points: []Point{
				{Lat: 48.8566, Lon: 2.3522},
			},
		},
		{
			Name:     "Delhi",
			Priority: 1,
			Points: []Point{
				{Lat: 28.6139, Lon: 77.2090},
			},
		},
		{
			Name:     "Beijing",
			Priority: 1,
			Points: []Point{
				{Lat: 39.9042, Lon: 116.4074},
			},
		},
		{
			Name:     "Tokyo",
			Priority: 2,
			Points: []Point{
				{Lat: 35.6762, Lon: 139.6503},
			},
		},
		{
			Name:     "São Paulo",
			Priority: 2,
			Points: []Point{
				{Lat: -23.5505, Lon: -46.6333},
			},
		},
	}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c RefreshConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to refresh.
func (c RefreshConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
