package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mizukake/tenki/internal/cache"
	"github.com/mizukake/tenki/internal/geocode"
	"github.com/mizukake/tenki/internal/location"
	"github.com/mizukake/tenki/internal/models"
	"github.com/rs/zerolog/log"
)

// Service is the weather query facade: cache lookup, coordinate
// resolution, source fetches, aggregation, normalization, cache
// write-back. It is the only component with externally visible behavior.
type Service struct {
	client     SourceClient
	cache      *cache.Service
	geocoder   geocode.Resolver
	locations  location.Store
	aggregator *RainfallAggregator

	// apiKey is the global provider credential; a location's own key
	// takes precedence when set.
	apiKey string

	now func() time.Time
}

func NewService(client SourceClient, cacheService *cache.Service, geocoder geocode.Resolver, locations location.Store, apiKey string) *Service {
	return &Service{
		client:     client,
		cache:      cacheService,
		geocoder:   geocoder,
		locations:  locations,
		aggregator: NewRainfallAggregator(client),
		apiKey:     apiKey,
		now:        time.Now,
	}
}

// GetWeather returns the daily snapshot for a location and date, from
// cache when fresh, otherwise assembled from the three upstream sources
// and written back. Forecast and historical failures degrade the numbers;
// unresolvable coordinates or an unreachable current-conditions source
// fail the query.
func (s *Service) GetWeather(ctx context.Context, locationID int64, date string) (*models.WeatherSnapshot, error) {
	// Cache maintenance piggybacks on query traffic with a small fixed
	// probability instead of a timer.
	if result, ran := s.cache.MaybeCleanup(ctx); ran {
		log.Info().
			Int("expired", result.Expired).
			Int("old_date", result.OldDate).
			Int("size_limit", result.SizeLimit).
			Msg("Cache cleanup ran")
	}

	loc, err := s.locations.Get(ctx, locationID)
	if err != nil {
		if errors.Is(err, location.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("loading location: %w", err)
	}

	coords, err := s.resolveCoordinates(ctx, loc)
	if err != nil {
		return nil, err
	}

	cached, err := s.cache.GetSnapshot(ctx, coords.Latitude, coords.Longitude, date)
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	if cached != nil {
		return cached, nil
	}

	apiKey := s.resolveAPIKey(loc)

	current, err := s.client.Current(ctx, coords.Latitude, coords.Longitude, apiKey)
	if err != nil {
		// No description/condition data at all means no snapshot can be
		// fabricated.
		return nil, NewUpstreamError("weather", "current conditions unreachable", err)
	}

	forecast, forecastErr := s.client.Forecast(ctx, coords.Latitude, coords.Longitude, apiKey)
	if forecastErr != nil {
		log.Warn().Err(forecastErr).Msg("Forecast unavailable, degrading rainfall and pop")
		forecast = nil
	}

	rainMM := s.aggregator.AccurateDailyRainfall(ctx, coords.Latitude, coords.Longitude, apiKey, forecast)

	snapshot := &models.WeatherSnapshot{
		Date:        date,
		Weather:     NormalizeDescription(current.Description),
		RainMM:      rainMM,
		Temperature: current.Temperature,
		Humidity:    current.Humidity,
		Icon:        current.Icon,
	}

	if forecastErr == nil {
		pop := s.todayPop(forecast)
		snapshot.Pop = &pop
	}

	if err := s.cache.SaveSnapshot(ctx, coords.Latitude, coords.Longitude, date, snapshot); err != nil {
		return nil, fmt.Errorf("caching snapshot: %w", err)
	}

	return snapshot, nil
}

// GetForecast returns up to days daily entries, one per calendar day,
// taken from each day's noon forecast sample.
func (s *Service) GetForecast(ctx context.Context, locationID int64, days int) ([]models.WeatherSnapshot, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be greater than zero")
	}

	loc, err := s.locations.Get(ctx, locationID)
	if err != nil {
		if errors.Is(err, location.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("loading location: %w", err)
	}

	coords, err := s.resolveCoordinates(ctx, loc)
	if err != nil {
		return nil, err
	}

	forecast, err := s.client.Forecast(ctx, coords.Latitude, coords.Longitude, s.resolveAPIKey(loc))
	if err != nil {
		return nil, NewUpstreamError("weather", "forecast unreachable", err)
	}

	result := make([]models.WeatherSnapshot, 0, days)
	seen := make(map[string]bool)
	for _, sample := range forecast {
		if len(result) >= days {
			break
		}
		if sample.Timestamp.Hour() != 12 {
			continue
		}
		dateStr := sample.Timestamp.Format("2006-01-02")
		if seen[dateStr] {
			continue
		}
		seen[dateStr] = true

		result = append(result, models.WeatherSnapshot{
			Date:        dateStr,
			Weather:     NormalizeDescription(sample.Description),
			RainMM:      sample.Rain3h,
			Temperature: sample.Temperature,
			Humidity:    sample.Humidity,
		})
	}

	return result, nil
}

// Cleanup exposes the unconditional composite sweep, for the periodic
// scheduler.
func (s *Service) Cleanup(ctx context.Context) cache.CleanupResult {
	return s.cache.Cleanup(ctx)
}

func (s *Service) resolveCoordinates(ctx context.Context, loc *models.Location) (models.Coordinates, error) {
	if loc.Latitude != nil && loc.Longitude != nil {
		return models.Coordinates{Latitude: *loc.Latitude, Longitude: *loc.Longitude}, nil
	}

	coords, err := s.geocoder.Geocode(ctx, loc.Address)
	if err != nil {
		// No coordinates means no query is possible.
		return models.Coordinates{}, NewUpstreamError("geocoder", "could not resolve address", err)
	}
	return coords, nil
}

func (s *Service) resolveAPIKey(loc *models.Location) string {
	if loc.APIKey != "" {
		return loc.APIKey
	}
	return s.apiKey
}

// todayPop extracts the precipitation probability from the first forecast
// sample falling on today, as a percentage.
func (s *Service) todayPop(forecast []models.ForecastSample) float64 {
	now := s.now()
	for _, sample := range forecast {
		if sameDay(sample.Timestamp, now) {
			return sample.Pop * 100
		}
	}
	return 0
}
