package geocoding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyforecaster/skyforecaster/internal/geocoding"
	"github.com/skyforecaster/skyforecaster/internal/observations"
)

type mockGeocoder struct {
	geocodeResult *geocoding.Location
	reverseResult *geocoding.Location
	searchResults []geocoding.Location
	err           error

	geocodeCalls int
	reverseCalls int
}

func (m *mockGeocoder) Geocode(_ context.Context, _ string) (*geocoding.Location, error) {
	m.geocodeCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.geocodeResult, nil
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (*geocoding.Location, error) {
	m.reverseCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.reverseResult, nil
}

func (m *mockGeocoder) Search(_ context.Context, _ string, _ int) ([]geocoding.Location, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.searchResults, nil
}

func (m *mockGeocoder) Name() string { return "mock" }

func london() *geocoding.Location {
	return &geocoding.Location{
		Lat:         51.5074,
		Lon:         -0.1278,
		DisplayName: "London, Greater London, England, United Kingdom",
		Source:      "mock",
	}
}

func TestResolve_ForwardGeocodesAddress(t *testing.T) {
	geocoder := &mockGeocoder{geocodeResult: london()}
	svc := geocoding.NewService(geocoding.ServiceConfig{Geocoder: geocoder, Logger: zerolog.Nop()})

	loc, err := svc.Resolve(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, 51.5074, loc.Lat)
	assert.Equal(t, 0, geocoder.reverseCalls)
}

func TestResolve_CoordinateInputReverseGeocodes(t *testing.T) {
	geocoder := &mockGeocoder{reverseResult: london()}
	svc := geocoding.NewService(geocoding.ServiceConfig{Geocoder: geocoder, Logger: zerolog.Nop()})

	loc, err := svc.Resolve(context.Background(), "51.5074, -0.1278")
	require.NoError(t, err)
	assert.Equal(t, london().DisplayName, loc.DisplayName)
	assert.Equal(t, 1, geocoder.reverseCalls)
	assert.Equal(t, 0, geocoder.geocodeCalls)
}

func TestResolve_CoordinateInputSurvivesReverseFailure(t *testing.T) {
	geocoder := &mockGeocoder{err: errors.New("down")}
	svc := geocoding.NewService(geocoding.ServiceConfig{Geocoder: geocoder, Logger: zerolog.Nop()})

	loc, err := svc.Resolve(context.Background(), "51.5,-0.12")
	require.NoError(t, err)
	assert.Equal(t, 51.5, loc.Lat)
	assert.Equal(t, -0.12, loc.Lon)
	assert.Equal(t, "coordinates", loc.Source)
}

func TestResolve_InvalidCoordinateRange(t *testing.T) {
	svc := geocoding.NewService(geocoding.ServiceConfig{Geocoder: &mockGeocoder{}, Logger: zerolog.Nop()})

	_, err := svc.Resolve(context.Background(), "95.0, 10.0")
	require.ErrorIs(t, err, observations.ErrInvalidCoordinates)
}

func TestResolve_EmptyInput(t *testing.T) {
	svc := geocoding.NewService(geocoding.ServiceConfig{Geocoder: &mockGeocoder{}, Logger: zerolog.Nop()})

	_, err := svc.Resolve(context.Background(), "   ")
	require.ErrorIs(t, err, geocoding.ErrEmptyQuery)
}

func TestResolve_NotFoundPassesThrough(t *testing.T) {
	geocoder := &mockGeocoder{err: geocoding.ErrNotFound}
	svc := geocoding.NewService(geocoding.ServiceConfig{Geocoder: geocoder, Logger: zerolog.Nop()})

	_, err := svc.Resolve(context.Background(), "nowhere at all")
	require.ErrorIs(t, err, geocoding.ErrNotFound)
}

func TestResolve_CachesForwardLookups(t *testing.T) {
	geocoder := &mockGeocoder{geocodeResult: london()}
	svc := geocoding.NewService(geocoding.ServiceConfig{Geocoder: geocoder, Logger: zerolog.Nop()})

	_, err := svc.Resolve(context.Background(), "London")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), "london")
	require.NoError(t, err)

	assert.Equal(t, 1, geocoder.geocodeCalls)
}

func TestSearch_ReturnsResults(t *testing.T) {
	geocoder := &mockGeocoder{searchResults: []geocoding.Location{*london()}}
	svc := geocoding.NewService(geocoding.ServiceConfig{Geocoder: geocoder, Logger: zerolog.Nop()})

	results, err := svc.Search(context.Background(), "London", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearch_ProviderErrorMapped(t *testing.T) {
	geocoder := &mockGeocoder{err: errors.New("down")}
	svc := geocoding.NewService(geocoding.ServiceConfig{Geocoder: geocoder, Logger: zerolog.Nop()})

	_, err := svc.Search(context.Background(), "London", 5)
	require.ErrorIs(t, err, geocoding.ErrProviderUnavailable)
}
