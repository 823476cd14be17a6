package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizukake/tenki/internal/cache"
	"github.com/mizukake/tenki/internal/config"
	"github.com/mizukake/tenki/internal/location"
	"github.com/mizukake/tenki/internal/models"
	"github.com/mizukake/tenki/internal/weather"
)

type stubSource struct {
	current    *models.CurrentConditions
	currentErr error
	forecast   []models.ForecastSample
}

func (s *stubSource) Current(context.Context, float64, float64, string) (*models.CurrentConditions, error) {
	if s.currentErr != nil {
		return nil, s.currentErr
	}
	return s.current, nil
}

func (s *stubSource) Forecast(context.Context, float64, float64, string) ([]models.ForecastSample, error) {
	return s.forecast, nil
}

func (s *stubSource) HistoricalHourRain(_ context.Context, _, _ float64, _ string, hour time.Time) models.HistoricalHourRain {
	return models.HistoricalHourRain{Timestamp: hour}
}

type stubResolver struct{}

func (stubResolver) Geocode(context.Context, string) (models.Coordinates, error) {
	return models.Coordinates{}, errors.New("geocoder should not be called")
}

func newTestApp(t *testing.T, source *stubSource) (*fiber.App, int64) {
	t.Helper()

	cacheService, err := cache.NewService(cache.NewMemoryStore(), &config.CacheConfig{
		TTLMinutes:         15,
		RetentionDays:      7,
		MaxSize:            1000,
		CleanupProbability: 0,
	})
	require.NoError(t, err)

	lat, lon := 35.68, 139.76
	locations := location.NewMemoryStore()
	id := locations.Add(models.Location{Name: "畑", Latitude: &lat, Longitude: &lon})

	service := weather.NewService(source, cacheService, stubResolver{}, locations, "key")

	app := fiber.New()
	RegisterRoutes(app, service)
	return app, id
}

func get(t *testing.T, app *fiber.App, url string) (*http.Response, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestWeatherEndpoint(t *testing.T) {
	t.Parallel()

	app, id := newTestApp(t, &stubSource{
		current: &models.CurrentConditions{Description: "小雨", Icon: "10d"},
	})

	resp, body := get(t, app, "/api/weather?location_id="+itoa(id)+"&date=2024-06-10")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"weather":"雨"`)
	assert.Contains(t, body, `"date":"2024-06-10"`)
}

func TestWeatherEndpointValidation(t *testing.T) {
	t.Parallel()

	app, id := newTestApp(t, &stubSource{
		current: &models.CurrentConditions{Description: "晴れ"},
	})

	tests := []struct {
		name string
		url  string
	}{
		{name: "missing location_id", url: "/api/weather?date=2024-06-10"},
		{name: "non-numeric location_id", url: "/api/weather?location_id=abc&date=2024-06-10"},
		{name: "missing date", url: "/api/weather?location_id=" + itoa(id)},
		{name: "malformed date", url: "/api/weather?location_id=" + itoa(id) + "&date=06/10/2024"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, _ := get(t, app, tt.url)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestWeatherEndpointUnknownLocation(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t, &stubSource{
		current: &models.CurrentConditions{Description: "晴れ"},
	})

	resp, _ := get(t, app, "/api/weather?location_id=999&date=2024-06-10")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWeatherEndpointUpstreamFailure(t *testing.T) {
	t.Parallel()

	app, id := newTestApp(t, &stubSource{currentErr: errors.New("provider down")})

	resp, _ := get(t, app, "/api/weather?location_id="+itoa(id)+"&date=2024-06-10")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestForecastEndpoint(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	var samples []models.ForecastSample
	for day := 0; day < 3; day++ {
		samples = append(samples, models.ForecastSample{
			Timestamp:   base.AddDate(0, 0, day),
			Description: "曇り",
		})
	}

	app, id := newTestApp(t, &stubSource{forecast: samples})

	resp, body := get(t, app, "/api/weather/forecast?location_id="+itoa(id)+"&days=2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"date":"2024-06-10"`)
	assert.Contains(t, body, `"date":"2024-06-11"`)
	assert.NotContains(t, body, `"date":"2024-06-12"`)
}

func TestForecastEndpointDaysBounds(t *testing.T) {
	t.Parallel()

	app, id := newTestApp(t, &stubSource{})

	for _, days := range []string{"0", "15", "abc"} {
		resp, _ := get(t, app, "/api/weather/forecast?location_id="+itoa(id)+"&days="+days)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "days=%s", days)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
