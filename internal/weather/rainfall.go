package weather

import (
	"context"
	"sync"
	"time"

	"github.com/mizukake/tenki/internal/models"
	"github.com/rs/zerolog/log"
)

// RainfallAggregator estimates cumulative rainfall for "today" as of the
// current moment by stitching two disjoint windows together: observed
// hourly actuals strictly before the current hour, and forecast buckets
// strictly after now. The windows cannot overlap, so nothing is counted
// twice. When now sits exactly on a 3-hour grid line both windows exclude
// that instant; the resulting minor undercount is the intended behavior,
// not something to compensate for.
type RainfallAggregator struct {
	client SourceClient
	now    func() time.Time
}

func NewRainfallAggregator(client SourceClient) *RainfallAggregator {
	return &RainfallAggregator{
		client: client,
		now:    time.Now,
	}
}

// AccurateDailyRainfall combines historical actuals with the given
// forecast series. The forecast is passed in rather than fetched so the
// caller can share one fetch between aggregation and pop extraction.
// Historical hours that fail resolve to absent and contribute zero.
func (a *RainfallAggregator) AccurateDailyRainfall(ctx context.Context, lat, lon float64, apiKey string, forecast []models.ForecastSample) float64 {
	now := a.now()

	// Observed actuals at each 3-hour boundary strictly before the
	// current hour. The fetches are independent, so fan them out.
	var hours []time.Time
	for hour := 0; hour < now.Hour() && hour < 24; hour += 3 {
		hours = append(hours,
			time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location()))
	}

	results := make([]models.HistoricalHourRain, len(hours))
	var wg sync.WaitGroup
	for i, hour := range hours {
		i, hour := i, hour
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.client.HistoricalHourRain(ctx, lat, lon, apiKey, hour)
		}()
	}
	wg.Wait()

	var total float64
	observed := 0
	for _, r := range results {
		if r.OK {
			total += r.RainMM
			observed++
		}
	}

	// Forecast buckets for today strictly after now.
	for _, sample := range forecast {
		if sameDay(sample.Timestamp, now) && sample.Timestamp.After(now) {
			total += sample.Rain3h
		}
	}

	log.Debug().
		Int("historical_hours", len(hours)).
		Int("historical_observed", observed).
		Float64("total_mm", total).
		Msg("Aggregated daily rainfall")

	return total
}

// ForecastDailyRainfall is the simpler single-source estimate: the sum of
// every 3-hour forecast bucket falling on the target date.
func ForecastDailyRainfall(forecast []models.ForecastSample, date time.Time) float64 {
	var total float64
	for _, sample := range forecast {
		if sameDay(sample.Timestamp, date) {
			total += sample.Rain3h
		}
	}
	return total
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
