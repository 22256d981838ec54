// Package forecast derives short-horizon air quality predictions from a
// current pollutant reading using bounded trend extrapolation.
package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/skyforecaster/skyforecaster/internal/aqi"
)

// Generation errors.
var (
	ErrInvalidHorizon = errors.New("forecast horizon out of range")
)

// Limits and defaults.
const (
	// MaxHorizonHours is the longest supported forecast horizon (7 days).
	MaxHorizonHours = 168

	// DefaultStepHours is the default spacing between forecast points.
	DefaultStepHours = 6
)

// Point is one projected future reading with its derived AQI.
type Point struct {
	// OffsetHours is the number of hours from the base reading time.
	OffsetHours int `json:"offsetHours"`

	// Timestamp is the time the projection applies to.
	Timestamp time.Time `json:"timestamp"`

	// Concentrations are the projected pollutant concentrations.
	Concentrations aqi.Concentrations `json:"concentrations"`

	// AQI is the index result for the projected concentrations.
	AQI aqi.Result `json:"aqi"`
}

// Series is an ordered forecast covering a requested horizon.
// Points are ordered by strictly increasing offset, starting at zero.
type Series struct {
	GeneratedAt  time.Time `json:"generatedAt"`
	HorizonHours int       `json:"horizonHours"`
	StepHours    int       `json:"stepHours"`
	Points       []Point   `json:"points"`
}

// Trend holds per-pollutant linear drift rates in concentration units per
// hour, typically derived from a historical series. A missing pollutant
// means no trend bias.
type Trend map[aqi.Pollutant]float64

// Config holds configuration for the Generator.
type Config struct {
	// MaxHorizonHours bounds the accepted horizon. Default: 168 (7 days).
	MaxHorizonHours int

	// Drift perturbs projected concentrations per step. If nil, uses
	// DefaultDrift, which is fully deterministic in its inputs.
	Drift Drift
}

// Generator produces forecast series from base readings.
type Generator struct {
	maxHorizon int
	drift      Drift
}

// NewGenerator creates a Generator with the given configuration.
func NewGenerator(cfg Config) *Generator {
	maxHorizon := cfg.MaxHorizonHours
	if maxHorizon <= 0 {
		maxHorizon = MaxHorizonHours
	}

	drift := cfg.Drift
	if drift == nil {
		drift = DefaultDrift
	}

	return &Generator{
		maxHorizon: maxHorizon,
		drift:      drift,
	}
}

// Generate produces a forecast series from the base concentrations.
//
// The series covers offsets {0, step, 2*step, ...} strictly below
// horizonHours, so horizon 24 with step 6 yields four points at
// 0, 6, 12 and 18 hours. Identical inputs always produce identical
// output.
func (g *Generator) Generate(base aqi.Concentrations, baseTime time.Time, horizonHours, stepHours int) (*Series, error) {
	return g.GenerateWithTrend(base, baseTime, horizonHours, stepHours, nil)
}

// GenerateWithTrend is Generate with an additional per-pollutant linear
// trend biasing each projection, typically computed from reading history.
func (g *Generator) GenerateWithTrend(base aqi.Concentrations, baseTime time.Time, horizonHours, stepHours int, trend Trend) (*Series, error) {
	if horizonHours <= 0 || horizonHours > g.maxHorizon {
		return nil, fmt.Errorf("horizon %dh (max %dh): %w", horizonHours, g.maxHorizon, ErrInvalidHorizon)
	}
	if stepHours <= 0 {
		return nil, fmt.Errorf("step %dh: %w", stepHours, ErrInvalidHorizon)
	}

	series := &Series{
		GeneratedAt:  baseTime,
		HorizonHours: horizonHours,
		StepHours:    stepHours,
	}

	for offset := 0; offset < horizonHours; offset += stepHours {
		projected := g.project(base, offset, trend)

		result, err := aqi.Compute(projected)
		if err != nil {
			return nil, fmt.Errorf("projecting offset %dh: %w", offset, err)
		}

		series.Points = append(series.Points, Point{
			OffsetHours:    offset,
			Timestamp:      baseTime.Add(time.Duration(offset) * time.Hour),
			Concentrations: projected,
			AQI:            result,
		})
	}

	return series, nil
}

// project applies drift and trend to each measured base concentration.
// Projected concentrations never go below zero.
func (g *Generator) project(base aqi.Concentrations, offsetHours int, trend Trend) aqi.Concentrations {
	var projected aqi.Concentrations

	for _, p := range aqi.Pollutants {
		conc := base.Get(p)
		if conc == nil {
			continue
		}

		value := *conc * g.drift(base, p, offsetHours)
		if trend != nil {
			value += trend[p] * float64(offsetHours)
		}
		if value < 0 {
			value = 0
		}

		projected.Set(p, value)
	}

	return projected
}
