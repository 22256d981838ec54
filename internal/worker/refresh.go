package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/aqi"
	"github.com/skyforecaster/skyforecaster/internal/history"
	"github.com/skyforecaster/skyforecaster/internal/observations"
)

// RefreshJob warms the observation cache for the configured targets and
// records the resulting readings into history.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	observations *observations.Service

	// History service (optional, nil disables recording and pruning)
	history *history.Service

	// Metrics
	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRefreshes    int64
	SuccessfulRefresh int64
	FailedRefreshes   int64
	ReadingsFetched   int64
	RecordsWritten    int64
	RecordsPruned     int64

	// Timings
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config       RefreshConfig
	Logger       zerolog.Logger
	Observations *observations.Service
	History      *history.Service
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultRefreshConfig()
	}

	return &RefreshJob{
		config:       config,
		logger:       cfg.Logger,
		observations: cfg.Observations,
		history:      cfg.History,
		metrics:      &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh operation.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Recorded    int
	Pruned      int64
	Errors      []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Stage string
	Point Point
	Error string
}

// Run executes the refresh job for all configured targets.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting observation refresh job")

	// Get all points to refresh
	points := j.config.AllPoints()

	// Create work channels
	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			j.refreshWorker(ctx, workerID, pointsChan, resultsChan)
		}(i)
	}

	// Send points to workers
	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	// Wait for workers to complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results
	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		if pr.recorded {
			result.Recorded++
		}
		result.Errors = append(result.Errors, pr.errors...)
	}

	if j.config.PruneHistory && j.history != nil {
		pruned, err := j.history.Prune(ctx)
		if err != nil {
			j.logger.Error().Err(err).Msg("pruning history failed")
		} else {
			result.Pruned = pruned
			atomic.AddInt64(&j.metrics.RecordsPruned, pruned)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	// Update metrics
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("recorded", result.Recorded).
		Int64("pruned", result.Pruned).
		Msg("observation refresh job completed")

	return result
}

type pointResult struct {
	point    Point
	success  bool
	recorded bool
	errors   []RefreshError
}

func (j *RefreshJob) refreshWorker(ctx context.Context, _ int, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			result := j.refreshPoint(ctx, point)
			results <- result
		}
	}
}

func (j *RefreshJob) refreshPoint(ctx context.Context, point Point) pointResult {
	result := pointResult{
		point:   point,
		success: true,
	}

	if j.observations == nil {
		return result
	}

	// Create timeout context for this point
	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	// Fetching through the service populates its cache
	reading, err := j.observations.GetReading(pointCtx, point.Lat, point.Lon)
	if err != nil {
		result.errors = append(result.errors, RefreshError{
			Stage: "fetch",
			Point: point,
			Error: err.Error(),
		})
		result.success = false
		return result
	}
	atomic.AddInt64(&j.metrics.ReadingsFetched, 1)

	if !j.config.RecordHistory || j.history == nil {
		return result
	}

	aqiResult, err := aqi.Compute(reading.Concentrations)
	if err != nil {
		if !errors.Is(err, aqi.ErrInsufficientData) {
			result.errors = append(result.errors, RefreshError{
				Stage: "compute",
				Point: point,
				Error: err.Error(),
			})
		}
		// A reading without pollutants still warmed the cache
		return result
	}

	if err := j.history.RecordReading(pointCtx, reading, aqiResult); err != nil {
		result.errors = append(result.errors, RefreshError{
			Stage: "record",
			Point: point,
			Error: err.Error(),
		})
		return result
	}

	result.recorded = true
	atomic.AddInt64(&j.metrics.RecordsWritten, 1)
	return result
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		ReadingsFetched:     j.metrics.ReadingsFetched,
		RecordsWritten:      j.metrics.RecordsWritten,
		RecordsPruned:       j.metrics.RecordsPruned,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"readings_fetched":      m.ReadingsFetched,
		"records_written":       m.RecordsWritten,
		"records_pruned":        m.RecordsPruned,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
