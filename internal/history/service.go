package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/aqi"
	"github.com/skyforecaster/skyforecaster/internal/forecast"
	"github.com/skyforecaster/skyforecaster/internal/observations"
)

// ServiceConfig holds configuration for the history service.
type ServiceConfig struct {
	// Repository is the record store (required).
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// Retention is how long records are kept (default: 30 days).
	Retention time.Duration

	// TrendWindowDays is how many days of daily averages feed the trend
	// calculation (default: 7).
	TrendWindowDays int
}

// Service records readings and derives daily averages and trends.
type Service struct {
	repo            Repository
	logger          zerolog.Logger
	retention       time.Duration
	trendWindowDays int
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) *Service {
	retention := cfg.Retention
	if retention == 0 {
		retention = 30 * 24 * time.Hour
	}

	trendWindowDays := cfg.TrendWindowDays
	if trendWindowDays <= 0 {
		trendWindowDays = 7
	}

	return &Service{
		repo:            cfg.Repository,
		logger:          cfg.Logger,
		retention:       retention,
		trendWindowDays: trendWindowDays,
	}
}

// RecordReading stores a reading with its computed index.
func (s *Service) RecordReading(ctx context.Context, reading *observations.Reading, result aqi.Result) error {
	record := &Record{
		GridKey:          GridKey(reading.Lat, reading.Lon),
		Lat:              reading.Lat,
		Lon:              reading.Lon,
		Concentrations:   reading.Concentrations,
		AQI:              result.Value,
		PrimaryPollutant: result.PrimaryPollutant,
		Source:           reading.Source,
		RecordedAt:       reading.Timestamp,
	}

	if err := s.repo.Append(ctx, record); err != nil {
		return fmt.Errorf("appending history record: %w", err)
	}

	s.logger.Debug().
		Str("grid_key", record.GridKey).
		Int("aqi", record.AQI).
		Msg("recorded reading")

	return nil
}

// History returns records for a location recorded at or after since.
func (s *Service) History(ctx context.Context, lat, lon float64, since time.Time) ([]*Record, error) {
	records, err := s.repo.ListSince(ctx, GridKey(lat, lon), since)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHistory
	}
	return records, nil
}

// DailyAverages groups a location's recent records by UTC day and averages
// each measured pollutant.
func (s *Service) DailyAverages(ctx context.Context, lat, lon float64, days int) ([]DailyAverage, error) {
	if days <= 0 {
		days = s.trendWindowDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	records, err := s.History(ctx, lat, lon, since)
	if err != nil {
		return nil, err
	}

	return dailyAverages(records), nil
}

// Trend derives per-pollutant linear drift rates, in concentration units per
// hour, from the location's daily averages. Pollutants with fewer than two
// averaged days are left out.
func (s *Service) Trend(ctx context.Context, lat, lon float64) (forecast.Trend, error) {
	averages, err := s.DailyAverages(ctx, lat, lon, s.trendWindowDays)
	if err != nil {
		return nil, err
	}

	return TrendFromDailyAverages(averages), nil
}

// Prune removes records older than the retention window.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)

	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}

	if deleted > 0 {
		s.logger.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("pruned history records")
	}

	return deleted, nil
}

// dailyAverages folds records into per-UTC-day means, ordered by date.
func dailyAverages(records []*Record) []DailyAverage {
	type accumulator struct {
		sums   map[aqi.Pollutant]float64
		counts map[aqi.Pollutant]int
		total  int
	}

	byDay := make(map[time.Time]*accumulator)
	for _, record := range records {
		day := record.RecordedAt.UTC().Truncate(24 * time.Hour)
		acc, ok := byDay[day]
		if !ok {
			acc = &accumulator{
				sums:   make(map[aqi.Pollutant]float64),
				counts: make(map[aqi.Pollutant]int),
			}
			byDay[day] = acc
		}
		acc.total++

		for _, p := range aqi.Pollutants {
			if conc := record.Concentrations.Get(p); conc != nil {
				acc.sums[p] += *conc
				acc.counts[p]++
			}
		}
	}

	averages := make([]DailyAverage, 0, len(byDay))
	for day, acc := range byDay {
		avg := DailyAverage{Date: day, SampleCount: acc.total}
		for p, count := range acc.counts {
			avg.Concentrations.Set(p, acc.sums[p]/float64(count))
		}
		averages = append(averages, avg)
	}

	sort.Slice(averages, func(i, j int) bool {
		return averages[i].Date.Before(averages[j].Date)
	})

	return averages
}

// TrendFromDailyAverages fits a least squares slope per pollutant over the
// daily averages, converted to concentration units per hour.
func TrendFromDailyAverages(averages []DailyAverage) forecast.Trend {
	if len(averages) < 2 {
		return nil
	}

	origin := averages[0].Date
	trend := make(forecast.Trend)

	for _, p := range aqi.Pollutants {
		var xs, ys []float64
		for _, avg := range averages {
			if conc := avg.Concentrations.Get(p); conc != nil {
				xs = append(xs, avg.Date.Sub(origin).Hours())
				ys = append(ys, *conc)
			}
		}
		if len(xs) < 2 {
			continue
		}

		if slope, ok := leastSquaresSlope(xs, ys); ok {
			trend[p] = slope
		}
	}

	if len(trend) == 0 {
		return nil
	}
	return trend
}

func leastSquaresSlope(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / denom, true
}
