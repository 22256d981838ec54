package forecast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyforecaster/skyforecaster/internal/aqi"
	"github.com/skyforecaster/skyforecaster/internal/forecast"
)

func f(v float64) *float64 {
	return &v
}

func baseConcentrations() aqi.Concentrations {
	return aqi.Concentrations{
		PM25: f(15.5),
		PM10: f(45.0),
		NO2:  f(25.0),
		O3:   f(60.0),
	}
}

func TestGenerate_PointCountAndOffsets(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{})
	baseTime := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	series, err := gen.Generate(baseConcentrations(), baseTime, 24, 6)
	require.NoError(t, err)

	require.Len(t, series.Points, 4)
	for i, want := range []int{0, 6, 12, 18} {
		assert.Equal(t, want, series.Points[i].OffsetHours)
		assert.Equal(t, baseTime.Add(time.Duration(want)*time.Hour), series.Points[i].Timestamp)
	}
	assert.Equal(t, 24, series.HorizonHours)
	assert.Equal(t, 6, series.StepHours)
}

func TestGenerate_UnevenHorizon(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{})

	// 20h horizon with 6h steps still stops strictly below the horizon.
	series, err := gen.Generate(baseConcentrations(), time.Now(), 20, 6)
	require.NoError(t, err)
	require.Len(t, series.Points, 4)
	assert.Equal(t, 18, series.Points[3].OffsetHours)
}

func TestGenerate_FirstPointMatchesBase(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{})

	series, err := gen.Generate(baseConcentrations(), time.Now(), 24, 6)
	require.NoError(t, err)

	first := series.Points[0]
	assert.Equal(t, 15.5, *first.Concentrations.PM25)
	assert.Equal(t, 60.0, *first.Concentrations.O3)
	assert.Equal(t, 67, first.AQI.Value)
	assert.Equal(t, aqi.PollutantO3, first.AQI.PrimaryPollutant)
}

func TestGenerate_Deterministic(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{})
	baseTime := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	a, err := gen.Generate(baseConcentrations(), baseTime, 72, 6)
	require.NoError(t, err)
	b, err := gen.Generate(baseConcentrations(), baseTime, 72, 6)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerate_DriftBounded(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{})

	series, err := gen.Generate(baseConcentrations(), time.Now(), 168, 6)
	require.NoError(t, err)

	baseConc := baseConcentrations()
	for _, pt := range series.Points {
		for _, p := range aqi.Pollutants {
			base := baseConc.Get(p)
			projected := pt.Concentrations.Get(p)
			if base == nil {
				assert.Nil(t, projected)
				continue
			}
			require.NotNil(t, projected)
			assert.GreaterOrEqual(t, *projected, *base*0.8)
			assert.LessOrEqual(t, *projected, *base*1.2)
		}
	}
}

func TestGenerate_ValidAQIPerPoint(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{})

	series, err := gen.Generate(baseConcentrations(), time.Now(), 48, 6)
	require.NoError(t, err)

	for _, pt := range series.Points {
		assert.GreaterOrEqual(t, pt.AQI.Value, 0)
		assert.LessOrEqual(t, pt.AQI.Value, 500)
		assert.NotEmpty(t, pt.AQI.PrimaryPollutant)
		assert.NotEmpty(t, pt.AQI.Category)
	}
}

func TestGenerate_InvalidHorizon(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{})

	_, err := gen.Generate(baseConcentrations(), time.Now(), 0, 6)
	require.ErrorIs(t, err, forecast.ErrInvalidHorizon)

	_, err = gen.Generate(baseConcentrations(), time.Now(), -24, 6)
	require.ErrorIs(t, err, forecast.ErrInvalidHorizon)

	_, err = gen.Generate(baseConcentrations(), time.Now(), 169, 6)
	require.ErrorIs(t, err, forecast.ErrInvalidHorizon)

	_, err = gen.Generate(baseConcentrations(), time.Now(), 24, 0)
	require.ErrorIs(t, err, forecast.ErrInvalidHorizon)
}

func TestGenerate_EmptyBasePropagatesInsufficientData(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{})

	_, err := gen.Generate(aqi.Concentrations{}, time.Now(), 24, 6)
	require.ErrorIs(t, err, aqi.ErrInsufficientData)
}

func TestGenerate_NegativeBasePropagatesInvalidConcentration(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{})

	base := aqi.Concentrations{PM25: f(-3)}
	_, err := gen.Generate(base, time.Now(), 24, 6)
	require.ErrorIs(t, err, aqi.ErrInvalidConcentration)
}

func TestGenerateWithTrend_AppliesSlope(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{Drift: forecast.FixedDrift(1.0)})

	trend := forecast.Trend{aqi.PollutantPM25: 2.0} // +2 µg/m³ per hour
	base := aqi.Concentrations{PM25: f(10.0)}

	series, err := gen.GenerateWithTrend(base, time.Now(), 24, 6, trend)
	require.NoError(t, err)

	require.Len(t, series.Points, 4)
	assert.Equal(t, 10.0, *series.Points[0].Concentrations.PM25)
	assert.Equal(t, 22.0, *series.Points[1].Concentrations.PM25)
	assert.Equal(t, 34.0, *series.Points[2].Concentrations.PM25)
	assert.Equal(t, 46.0, *series.Points[3].Concentrations.PM25)
}

func TestGenerateWithTrend_ClampsAtZero(t *testing.T) {
	gen := forecast.NewGenerator(forecast.Config{Drift: forecast.FixedDrift(1.0)})

	trend := forecast.Trend{aqi.PollutantO3: -10.0}
	base := aqi.Concentrations{O3: f(30.0)}

	series, err := gen.GenerateWithTrend(base, time.Now(), 24, 6, trend)
	require.NoError(t, err)

	// 30 - 10*6 would be negative from the second point on.
	assert.Equal(t, 30.0, *series.Points[0].Concentrations.O3)
	assert.Equal(t, 0.0, *series.Points[1].Concentrations.O3)
	assert.Equal(t, 0.0, *series.Points[3].Concentrations.O3)
}

func TestDefaultDrift_Deterministic(t *testing.T) {
	base := baseConcentrations()

	a := forecast.DefaultDrift(base, aqi.PollutantPM25, 12)
	b := forecast.DefaultDrift(base, aqi.PollutantPM25, 12)
	assert.Equal(t, a, b)

	// Different offsets and pollutants should not all collapse to the
	// same factor.
	c := forecast.DefaultDrift(base, aqi.PollutantPM25, 18)
	d := forecast.DefaultDrift(base, aqi.PollutantO3, 12)
	assert.False(t, a == c && a == d, "drift should vary with inputs")
}
