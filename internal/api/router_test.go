package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyforecaster/skyforecaster/internal/api"
	"github.com/skyforecaster/skyforecaster/internal/api/handler"
	"github.com/skyforecaster/skyforecaster/internal/api/models"
	"github.com/skyforecaster/skyforecaster/internal/auth"
	"github.com/skyforecaster/skyforecaster/internal/forecast"
	"github.com/skyforecaster/skyforecaster/internal/geocoding"
	"github.com/skyforecaster/skyforecaster/internal/observations"
)

// stubResolver resolves a fixed set of locations without a geocoder.
type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, input string) (*geocoding.Location, error) {
	if input == "Nowhere" {
		return nil, geocoding.ErrNotFound
	}
	return &geocoding.Location{
		Lat:         52.37,
		Lon:         4.89,
		DisplayName: "Amsterdam, Netherlands",
		Source:      "stub",
	}, nil
}

func (stubResolver) Search(_ context.Context, query string, _ int) ([]geocoding.Location, error) {
	return []geocoding.Location{
		{
			Lat:         52.37,
			Lon:         4.89,
			DisplayName: "Amsterdam, Netherlands",
			Type:        "city",
			Importance:  0.9,
			Address:     geocoding.Address{City: "Amsterdam", Country: "Netherlands"},
			Source:      "stub",
		},
	}, nil
}

func testTokenService() *auth.TokenService {
	return auth.NewTokenService(auth.TokenConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.skyforecaster.io",
		Audience:   "skyforecaster-api",
	})
}

// adminToken generates a valid service token with the admin scope.
func adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := testTokenService().Generate("ops-cli", []string{auth.ScopeAdmin}, time.Hour)
	require.NoError(t, err)
	return token
}

func newTestRouter() http.Handler {
	logger := zerolog.New(io.Discard)

	readings := observations.NewService(observations.ServiceConfig{
		Providers: []observations.Provider{observations.NewSyntheticProvider()},
		Logger:    logger,
	})

	return api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2024-01-01T00:00:00Z",
		Logger:    logger,
		Readings:  readings,
		Resolver:  stubResolver{},
		Generator: forecast.NewGenerator(forecast.Config{}),
		Tokens:    testTokenService(),
		Caches:    []handler.CacheInvalidator{readings},
		Refresh: func(ctx context.Context, jobID string) error {
			return nil
		},
	})
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, status.Status)
}

func TestRouter_GetConditions_ByCoordinates(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/conditions?lat=52.37&lon=4.89", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ConditionsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, 52.37, resp.Location.Point.Lat)
	assert.Positive(t, resp.AQI.Value)
	assert.NotEmpty(t, resp.AQI.PrimaryPollutant)
	assert.NotEmpty(t, resp.AQI.Category)
	assert.NotNil(t, resp.Pollutants.PM25)
	assert.Equal(t, "synthetic", resp.Source)
}

func TestRouter_GetConditions_ByLocationName(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/conditions?location=Amsterdam", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ConditionsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "Amsterdam, Netherlands", resp.Location.DisplayName)
}

func TestRouter_GetConditions_LocationNotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/conditions?location=Nowhere", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_GetConditions_MissingLocation(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/conditions", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)

	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_GetConditions_InvalidCoordinates(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/conditions?lat=91&lon=0", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_GetForecast(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/forecast?lat=52.37&lon=4.89&hours=24&step=6", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ForecastResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, 24, resp.HorizonHours)
	assert.Equal(t, 6, resp.StepHours)
	require.Len(t, resp.Predictions, 4)
	assert.Equal(t, 0, resp.Predictions[0].OffsetHours)
	assert.Equal(t, 18, resp.Predictions[3].OffsetHours)
	assert.Positive(t, resp.Predictions[0].AQI.Value)
}

func TestRouter_GetForecast_HorizonTooLarge(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/forecast?lat=52.37&lon=4.89&hours=200", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_GetForecast_BadStep(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/forecast?lat=52.37&lon=4.89&step=abc", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CalculateAQI(t *testing.T) {
	router := newTestRouter()

	pm25 := 35.5
	input := models.AQICalculateRequest{
		Pollutants: models.Pollutants{PM25: &pm25},
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/aqi:calculate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.AQICalculateResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, 101, resp.AQI.Value)
	assert.Equal(t, "pm25", resp.AQI.PrimaryPollutant)
}

func TestRouter_CalculateAQI_NoPollutants(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(models.AQICalculateRequest{})

	req := httptest.NewRequest(http.MethodPost, "/v1/aqi:calculate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)

	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.Errors)
}

func TestRouter_LocationSearch(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/search?q=Amsterdam", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.LocationSearchResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "Amsterdam", resp.Query)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Amsterdam", resp.Results[0].City)
}

func TestRouter_LocationSearch_MissingQuery(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/search", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_AdminInvalidateCache(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/cache/invalidate", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.AdminActionResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "cache.invalidate", resp.Action)
	assert.Equal(t, "completed", resp.Status)
}

func TestRouter_AdminRefresh(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/refresh", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp models.AdminActionResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "locations.refresh", resp.Action)
	assert.Equal(t, "enqueued", resp.Status)
	assert.NotEmpty(t, resp.JobID)
}

func TestRouter_Admin_RequiresToken(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/cache/invalidate", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_Admin_RejectsMissingScope(t *testing.T) {
	router := newTestRouter()

	token, _, err := testTokenService().Generate("reporting", []string{"read"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/refresh", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
