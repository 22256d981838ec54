package observations

import (
	"context"
	"math"
	"time"

	"github.com/skyforecaster/skyforecaster/internal/aqi"
)

// SyntheticProviderName identifies the synthetic fallback provider.
const SyntheticProviderName = "synthetic"

// SyntheticProvider derives plausible readings directly from the coordinates
// so the service stays usable when no upstream provider is reachable. The
// same coordinates always yield the same reading.
type SyntheticProvider struct {
	// Now returns the reading timestamp. Defaults to time.Now; injectable
	// for tests.
	Now func() time.Time
}

// NewSyntheticProvider creates a synthetic fallback provider.
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{Now: time.Now}
}

// Name returns the provider name.
func (p *SyntheticProvider) Name() string {
	return SyntheticProviderName
}

// GetReading produces a deterministic coordinate-derived reading.
func (p *SyntheticProvider) GetReading(_ context.Context, lat, lon float64) (*Reading, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	pm25 := round1(10.0 + math.Mod(math.Abs(lat*2), 20) + math.Mod(math.Abs(lon*3), 15))
	pm10 := round1(25.0 + math.Mod(math.Abs(lat*1.5), 25) + math.Mod(math.Abs(lon*2), 20))
	no2 := round1(15.0 + math.Mod(math.Abs(lat*2.5), 18) + math.Mod(math.Abs(lon*1.8), 12))
	o3 := round1(45.0 + math.Mod(math.Abs(lat*1.2), 22) + math.Mod(math.Abs(lon*2.2), 18))

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	return &Reading{
		Lat: lat,
		Lon: lon,
		Concentrations: aqi.Concentrations{
			PM25: &pm25,
			PM10: &pm10,
			NO2:  &no2,
			O3:   &o3,
		},
		Weather: &Weather{
			Temperature:   round1(15.0 + math.Mod(math.Abs(lat*0.8), 25)),
			Humidity:      round1(40.0 + math.Mod(math.Abs(lon*1.2), 40)),
			Pressure:      round2(1000.0 + math.Mod(math.Abs(lat*lon), 50)),
			WindSpeed:     round1(3.0 + math.Mod(math.Abs(lat+lon), 8)),
			WindDirection: round1(math.Mod(math.Abs(lat*lon), 360)),
		},
		Timestamp: now().UTC(),
		Source:    SyntheticProviderName,
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
