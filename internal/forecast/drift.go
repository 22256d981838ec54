package forecast

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/skyforecaster/skyforecaster/internal/aqi"
)

// Drift returns a multiplicative factor applied to a base concentration
// when projecting it offsetHours into the future. Implementations must be
// deterministic in their inputs so forecasts are reproducible.
type Drift func(base aqi.Concentrations, pollutant aqi.Pollutant, offsetHours int) float64

// Drift bounds: projections vary at most ±20% around the base value,
// matching the variation the mock upstream data exhibits.
const (
	driftMin = 0.8
	driftMax = 1.2
)

// DefaultDrift derives a pseudo-random factor in [0.8, 1.2) seeded by the
// base reading, the pollutant and the offset. The zero offset always maps
// to a factor of exactly 1 so the first forecast point reproduces the
// base reading.
func DefaultDrift(base aqi.Concentrations, pollutant aqi.Pollutant, offsetHours int) float64 {
	if offsetHours == 0 {
		return 1.0
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(pollutant))

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(offsetHours))
	_, _ = h.Write(buf[:])

	for _, p := range aqi.Pollutants {
		if conc := base.Get(p); conc != nil {
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(*conc))
			_, _ = h.Write(buf[:])
		}
	}

	// Top 53 bits give a uniform value in [0, 1).
	u := float64(h.Sum64()>>11) / float64(uint64(1)<<53)
	return driftMin + u*(driftMax-driftMin)
}

// FixedDrift returns a Drift that always applies the given factor.
// Useful for tests that need exact projected values.
func FixedDrift(factor float64) Drift {
	return func(aqi.Concentrations, aqi.Pollutant, int) float64 {
		return factor
	}
}
