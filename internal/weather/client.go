package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mizukake/tenki/internal/metrics"
	"github.com/mizukake/tenki/internal/models"
	"github.com/mizukake/tenki/pkg/http/client"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

const (
	currentPath     = "/data/2.5/weather"
	forecastPath    = "/data/2.5/forecast"
	timeMachinePath = "/data/2.5/onecall/timemachine"
)

// SourceClient is the contract the facade and aggregator consume: three
// independent fetches against the weather provider. Current and Forecast
// report unavailability through ErrSourceUnavailable; the historical fetch
// is value-or-absent because a missing hour merely contributes nothing.
type SourceClient interface {
	Current(ctx context.Context, lat, lon float64, apiKey string) (*models.CurrentConditions, error)
	Forecast(ctx context.Context, lat, lon float64, apiKey string) ([]models.ForecastSample, error)
	HistoricalHourRain(ctx context.Context, lat, lon float64, apiKey string, hour time.Time) models.HistoricalHourRain
}

// OpenWeatherClient fetches from the OpenWeatherMap HTTP API. Each
// endpoint has its own circuit breaker so a flapping history endpoint
// cannot open the breaker for current conditions. There is no retry; a
// failed fetch is reported immediately and the caller decides whether to
// degrade.
type OpenWeatherClient struct {
	httpClient *client.Client
	loc        *time.Location

	currentBreaker  *gobreaker.CircuitBreaker
	forecastBreaker *gobreaker.CircuitBreaker
	historyBreaker  *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(httpClient *client.Client) *OpenWeatherClient {
	return &OpenWeatherClient{
		httpClient:      httpClient,
		loc:             time.Local,
		currentBreaker:  gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "owm-current"}),
		forecastBreaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "owm-forecast"}),
		historyBreaker:  gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "owm-history"}),
	}
}

func baseQuery(lat, lon float64, apiKey string) url.Values {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", apiKey)
	q.Set("units", "metric")
	q.Set("lang", "ja")
	return q
}

func (c *OpenWeatherClient) fetch(ctx context.Context, cb *gobreaker.CircuitBreaker, path string, q url.Values) ([]byte, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Get(ctx, path+"?"+q.Encode())
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return resp.Body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

type owmWeatherField struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmMainField struct {
	Temp     *float64 `json:"temp"`
	Humidity *float64 `json:"humidity"`
}

type owmCurrentResponse struct {
	Weather []owmWeatherField `json:"weather"`
	Main    owmMainField      `json:"main"`
}

// Current fetches the point-in-time conditions.
func (c *OpenWeatherClient) Current(ctx context.Context, lat, lon float64, apiKey string) (*models.CurrentConditions, error) {
	body, err := c.fetch(ctx, c.currentBreaker, currentPath, baseQuery(lat, lon, apiKey))
	metrics.RecordSourceFetch("current", err)
	if err != nil {
		log.Warn().Err(err).Msg("Current conditions fetch failed")
		return nil, fmt.Errorf("fetching current conditions: %w", ErrSourceUnavailable)
	}

	var parsed owmCurrentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Warn().Err(err).Msg("Current conditions decode failed")
		return nil, fmt.Errorf("decoding current conditions: %w", ErrSourceUnavailable)
	}

	conditions := &models.CurrentConditions{
		Description: string(models.ConditionUnknown),
		Temperature: parsed.Main.Temp,
		Humidity:    parsed.Main.Humidity,
	}
	if len(parsed.Weather) > 0 {
		if parsed.Weather[0].Description != "" {
			conditions.Description = parsed.Weather[0].Description
		}
		conditions.Icon = parsed.Weather[0].Icon
	}
	return conditions, nil
}

type owmForecastResponse struct {
	List []struct {
		DtTxt   string            `json:"dt_txt"`
		Weather []owmWeatherField `json:"weather"`
		Main    owmMainField      `json:"main"`
		Rain    struct {
			ThreeH float64 `json:"3h"`
		} `json:"rain"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

// Forecast fetches the 3-hourly forecast series, ordered by timestamp
// ascending as the provider returns it.
func (c *OpenWeatherClient) Forecast(ctx context.Context, lat, lon float64, apiKey string) ([]models.ForecastSample, error) {
	body, err := c.fetch(ctx, c.forecastBreaker, forecastPath, baseQuery(lat, lon, apiKey))
	metrics.RecordSourceFetch("forecast", err)
	if err != nil {
		log.Warn().Err(err).Msg("Forecast fetch failed")
		return nil, fmt.Errorf("fetching forecast: %w", ErrSourceUnavailable)
	}

	var parsed owmForecastResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Warn().Err(err).Msg("Forecast decode failed")
		return nil, fmt.Errorf("decoding forecast: %w", ErrSourceUnavailable)
	}

	samples := make([]models.ForecastSample, 0, len(parsed.List))
	for _, item := range parsed.List {
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", item.DtTxt, c.loc)
		if err != nil {
			log.Debug().Str("dt_txt", item.DtTxt).Msg("Skipping forecast sample with bad timestamp")
			continue
		}

		sample := models.ForecastSample{
			Timestamp:   ts,
			Rain3h:      item.Rain.ThreeH,
			Pop:         item.Pop,
			Temperature: item.Main.Temp,
			Humidity:    item.Main.Humidity,
		}
		if len(item.Weather) > 0 {
			sample.Description = item.Weather[0].Description
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

type owmTimeMachineResponse struct {
	Hourly []struct {
		Rain struct {
			OneH float64 `json:"1h"`
		} `json:"rain"`
	} `json:"hourly"`
}

// HistoricalHourRain fetches the observed rainfall for one past hour.
// Every failure mode collapses to an absent value; one missing hour must
// not fail the day's aggregate.
func (c *OpenWeatherClient) HistoricalHourRain(ctx context.Context, lat, lon float64, apiKey string, hour time.Time) models.HistoricalHourRain {
	q := baseQuery(lat, lon, apiKey)
	q.Set("dt", strconv.FormatInt(hour.Unix(), 10))

	body, err := c.fetch(ctx, c.historyBreaker, timeMachinePath, q)
	metrics.RecordSourceFetch("history", err)
	if err != nil {
		log.Debug().Err(err).Time("hour", hour).Msg("Historical hourly fetch failed")
		return models.HistoricalHourRain{Timestamp: hour}
	}

	var parsed owmTimeMachineResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Debug().Err(err).Time("hour", hour).Msg("Historical hourly decode failed")
		return models.HistoricalHourRain{Timestamp: hour}
	}

	if len(parsed.Hourly) == 0 {
		return models.HistoricalHourRain{Timestamp: hour}
	}

	return models.HistoricalHourRain{
		Timestamp: hour,
		RainMM:    parsed.Hourly[0].Rain.OneH,
		OK:        true,
	}
}
