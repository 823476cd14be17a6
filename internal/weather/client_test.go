package weather

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizukake/tenki/internal/models"
	"github.com/mizukake/tenki/pkg/http/client"
)

func fixtureClient(fn func(path string) (*client.Response, error)) *client.Client {
	c := client.New(client.Options{BaseURL: "https://api.example"})
	c.GetFunc = func(_ context.Context, path string) (*client.Response, error) {
		return fn(path)
	}
	return c
}

func okResponse(body string) (*client.Response, error) {
	return &client.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func TestCurrentParsesResponse(t *testing.T) {
	t.Parallel()

	var requestedPath string
	c := NewOpenWeatherClient(fixtureClient(func(path string) (*client.Response, error) {
		requestedPath = path
		return okResponse(`{
			"weather": [{"description": "小雨", "icon": "10d"}],
			"main": {"temp": 21.5, "humidity": 68}
		}`)
	}))

	got, err := c.Current(context.Background(), 35.68, 139.76, "secret")
	require.NoError(t, err)

	assert.Equal(t, "小雨", got.Description)
	assert.Equal(t, "10d", got.Icon)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 21.5, *got.Temperature, 1e-9)
	require.NotNil(t, got.Humidity)
	assert.InDelta(t, 68, *got.Humidity, 1e-9)

	require.True(t, strings.HasPrefix(requestedPath, "/data/2.5/weather?"))
	q, err := url.ParseQuery(strings.TrimPrefix(requestedPath, "/data/2.5/weather?"))
	require.NoError(t, err)
	assert.Equal(t, "35.68", q.Get("lat"))
	assert.Equal(t, "139.76", q.Get("lon"))
	assert.Equal(t, "secret", q.Get("appid"))
	assert.Equal(t, "metric", q.Get("units"))
	assert.Equal(t, "ja", q.Get("lang"))
}

func TestCurrentEmptyWeatherArray(t *testing.T) {
	t.Parallel()

	c := NewOpenWeatherClient(fixtureClient(func(string) (*client.Response, error) {
		return okResponse(`{"weather": [], "main": {}}`)
	}))

	got, err := c.Current(context.Background(), 35, 139, "key")
	require.NoError(t, err)
	assert.Equal(t, string(models.ConditionUnknown), got.Description)
	assert.Empty(t, got.Icon)
}

func TestCurrentUpstreamFailure(t *testing.T) {
	t.Parallel()

	c := NewOpenWeatherClient(fixtureClient(func(string) (*client.Response, error) {
		return &client.Response{StatusCode: http.StatusInternalServerError}, nil
	}))

	_, err := c.Current(context.Background(), 35, 139, "key")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestForecastParsesSeries(t *testing.T) {
	t.Parallel()

	c := NewOpenWeatherClient(fixtureClient(func(string) (*client.Response, error) {
		return okResponse(`{"list": [
			{
				"dt_txt": "2024-06-10 09:00:00",
				"weather": [{"description": "厚い雲"}],
				"main": {"temp": 20.0, "humidity": 70},
				"rain": {"3h": 0.5},
				"pop": 0.4
			},
			{
				"dt_txt": "garbage",
				"weather": [],
				"main": {}
			},
			{
				"dt_txt": "2024-06-10 12:00:00",
				"weather": [{"description": "小雨"}],
				"main": {},
				"rain": {"3h": 2.0},
				"pop": 0.8
			}
		]}`)
	}))

	got, err := c.Forecast(context.Background(), 35, 139, "key")
	require.NoError(t, err)

	// The malformed middle sample is skipped, not fatal.
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local), got[0].Timestamp)
	assert.Equal(t, "厚い雲", got[0].Description)
	assert.InDelta(t, 0.5, got[0].Rain3h, 1e-9)
	assert.InDelta(t, 0.4, got[0].Pop, 1e-9)

	assert.Equal(t, time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local), got[1].Timestamp)
	assert.InDelta(t, 2.0, got[1].Rain3h, 1e-9)
}

func TestForecastMissingRainBlock(t *testing.T) {
	t.Parallel()

	// Dry buckets omit the rain object entirely.
	c := NewOpenWeatherClient(fixtureClient(func(string) (*client.Response, error) {
		return okResponse(`{"list": [
			{"dt_txt": "2024-06-10 15:00:00", "weather": [{"description": "晴天"}], "main": {}}
		]}`)
	}))

	got, err := c.Forecast(context.Background(), 35, 139, "key")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Rain3h)
	assert.Zero(t, got[0].Pop)
}

func TestHistoricalHourRain(t *testing.T) {
	t.Parallel()

	hour := time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC)

	var requestedPath string
	c := NewOpenWeatherClient(fixtureClient(func(path string) (*client.Response, error) {
		requestedPath = path
		return okResponse(`{"hourly": [{"rain": {"1h": 1.2}}]}`)
	}))

	got := c.HistoricalHourRain(context.Background(), 35, 139, "key", hour)
	assert.True(t, got.OK)
	assert.InDelta(t, 1.2, got.RainMM, 1e-9)
	assert.Contains(t, requestedPath, "dt=1717988400")
}

func TestHistoricalHourRainAbsent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(string) (*client.Response, error)
	}{
		{
			name: "upstream error",
			fn: func(string) (*client.Response, error) {
				return &client.Response{StatusCode: http.StatusBadGateway}, nil
			},
		},
		{
			name: "malformed body",
			fn: func(string) (*client.Response, error) {
				return okResponse(`{not json`)
			},
		},
		{
			name: "empty hourly array",
			fn: func(string) (*client.Response, error) {
				return okResponse(`{"hourly": []}`)
			},
		},
	}

	hour := time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewOpenWeatherClient(fixtureClient(tt.fn))
			got := c.HistoricalHourRain(context.Background(), 35, 139, "key", hour)
			assert.False(t, got.OK)
		})
	}
}

func TestHistoricalHourRainDryHour(t *testing.T) {
	t.Parallel()

	// An hour with no rain block is an observed dry hour, not an absence.
	c := NewOpenWeatherClient(fixtureClient(func(string) (*client.Response, error) {
		return okResponse(`{"hourly": [{}]}`)
	}))

	got := c.HistoricalHourRain(context.Background(), 35, 139, "key", time.Now())
	assert.True(t, got.OK)
	assert.Zero(t, got.RainMM)
}
