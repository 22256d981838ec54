// Package history persists past air quality readings and derives
// per-pollutant trends from them.
package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/skyforecaster/skyforecaster/internal/aqi"
)

// History errors.
var (
	ErrNoHistory = errors.New("no history for location")
)

// gridSize groups nearby readings into the same history series, matching
// the observation cache cells.
const gridSize = 0.1

// Record is one stored reading with its computed index.
type Record struct {
	ID               string             `json:"id"`
	GridKey          string             `json:"-"`
	Lat              float64            `json:"latitude"`
	Lon              float64            `json:"longitude"`
	Concentrations   aqi.Concentrations `json:"pollutants"`
	AQI              int                `json:"aqi"`
	PrimaryPollutant aqi.Pollutant      `json:"primaryPollutant"`
	Source           string             `json:"source"`
	RecordedAt       time.Time          `json:"recordedAt"`
}

// DailyAverage is the mean of a day's readings for one location series.
type DailyAverage struct {
	Date           time.Time          `json:"date"`
	Concentrations aqi.Concentrations `json:"pollutants"`
	SampleCount    int                `json:"sampleCount"`
}

// Repository defines the storage interface for history records.
type Repository interface {
	// Append stores a record.
	Append(ctx context.Context, record *Record) error

	// ListSince returns records for a grid cell recorded at or after
	// since, ordered by recording time ascending.
	ListSince(ctx context.Context, gridKey string, since time.Time) ([]*Record, error)

	// DeleteOlderThan removes records recorded before the cutoff and
	// returns how many were deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// GridKey maps coordinates to their history series key.
func GridKey(lat, lon float64) string {
	gridLat := math.Floor(lat/gridSize) * gridSize
	gridLon := math.Floor(lon/gridSize) * gridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLon)
}
