package openaq_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyforecaster/skyforecaster/internal/observations"
	"github.com/skyforecaster/skyforecaster/internal/observations/openaq"
)

const measurementsFixture = `{
	"results": [
		{"parameter": "pm25", "value": 15.5, "unit": "µg/m³", "date": {"utc": "2026-03-14T09:00:00Z"}},
		{"parameter": "pm25", "value": 99.0, "unit": "µg/m³", "date": {"utc": "2026-03-14T07:00:00Z"}},
		{"parameter": "o3", "value": 0.03, "unit": "ppm", "date": {"utc": "2026-03-14T08:30:00Z"}},
		{"parameter": "co", "value": 1200, "unit": "µg/m³", "date": {"utc": "2026-03-14T08:00:00Z"}},
		{"parameter": "bc", "value": 2.1, "unit": "µg/m³", "date": {"utc": "2026-03-14T09:00:00Z"}}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *openaq.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return openaq.NewClient(openaq.ClientConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Logger:  zerolog.Nop(),
	})
}

func TestGetReading_ParsesAndNormalizesMeasurements(t *testing.T) {
	var gotPath, gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(measurementsFixture))
	})

	reading, err := client.GetReading(context.Background(), 51.5074, -0.1278)
	require.NoError(t, err)

	assert.Equal(t, "/measurements", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "openaq", reading.Source)

	// Newest pm25 measurement wins.
	require.NotNil(t, reading.Concentrations.PM25)
	assert.Equal(t, 15.5, *reading.Concentrations.PM25)

	// 0.03 ppm O3 converts to µg/m³ via molecular weight.
	require.NotNil(t, reading.Concentrations.O3)
	assert.InDelta(t, 0.03*48.00*1000/24.45, *reading.Concentrations.O3, 0.01)

	// CO arrives in µg/m³ and is carried in mg/m³.
	require.NotNil(t, reading.Concentrations.CO)
	assert.InDelta(t, 1.2, *reading.Concentrations.CO, 0.001)

	// Unknown parameters are ignored.
	assert.Nil(t, reading.Concentrations.PM10)
	assert.Nil(t, reading.Concentrations.NO2)
	assert.Nil(t, reading.Concentrations.SO2)

	// Reading timestamp is the newest measurement time.
	assert.Equal(t, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), reading.Timestamp)
}

func TestGetReading_NoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	})

	_, err := client.GetReading(context.Background(), 51.5, -0.12)
	require.ErrorIs(t, err, observations.ErrNoDataForLocation)
}

func TestGetReading_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetReading(context.Background(), 51.5, -0.12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code")
}

func TestGetReading_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.GetReading(context.Background(), 51.5, -0.12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}
