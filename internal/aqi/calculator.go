package aqi

import (
	"fmt"
	"math"
)

// Compute calculates the overall AQI for a set of pollutant concentrations.
//
// Each measured pollutant is mapped to a sub-index by linear interpolation
// within its EPA breakpoint bracket; the overall value is the maximum
// sub-index and the pollutant achieving it is the primary pollutant.
//
// Concentrations above the top of a table are capped at an AQI of 500.
// At least one pollutant must be measured; a negative concentration is
// rejected.
func Compute(c Concentrations) (Result, error) {
	if c.IsEmpty() {
		return Result{}, ErrInsufficientData
	}

	result := Result{
		Value:            -1,
		SubIndices:       make(map[Pollutant]int),
		PrimaryPollutant: "",
	}

	for _, p := range Pollutants {
		conc := c.Get(p)
		if conc == nil {
			continue
		}

		sub, err := SubIndex(p, *conc)
		if err != nil {
			return Result{}, err
		}

		result.SubIndices[p] = sub
		if sub > result.Value {
			result.Value = sub
			result.PrimaryPollutant = p
		}
	}

	result.Category = CategoryFor(result.Value)
	return result, nil
}

// SubIndex calculates the AQI sub-index for a single pollutant
// concentration. Concentrations beyond the top breakpoint return 500.
func SubIndex(p Pollutant, conc float64) (int, error) {
	if conc < 0 {
		return 0, fmt.Errorf("%s: %w", p, ErrInvalidConcentration)
	}

	table, ok := breakpoints[p]
	if !ok {
		return 0, fmt.Errorf("unknown pollutant %q", p)
	}

	v := toTableUnits(p, conc)

	for _, bp := range table {
		if v <= bp.ConcHigh {
			return interpolate(v, bp), nil
		}
	}

	// Above the top of the table: cap rather than extrapolate.
	return 500, nil
}

// interpolate applies the EPA linear interpolation formula within a bracket
// and rounds to the nearest integer. Concentrations that fall in the gap
// between two integer-valued brackets (e.g. O3 54-55 ppb) take the floor of
// the bracket above, which keeps the mapping monotonic.
func interpolate(conc float64, bp breakpoint) int {
	if conc < bp.ConcLow {
		return bp.AQILow
	}
	span := bp.ConcHigh - bp.ConcLow
	if span == 0 {
		return bp.AQIHigh
	}
	i := float64(bp.AQIHigh-bp.AQILow)/span*(conc-bp.ConcLow) + float64(bp.AQILow)
	return int(math.Round(i))
}
