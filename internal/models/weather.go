package models

import "time"

// Condition is the closed vocabulary every provider description is
// normalized into. Values are the Japanese labels served to clients.
type Condition string

const (
	ConditionClear   Condition = "晴れ"
	ConditionCloudy  Condition = "曇り"
	ConditionRain    Condition = "雨"
	ConditionStorm   Condition = "雷雨"
	ConditionSnow    Condition = "雪"
	ConditionFog     Condition = "霧"
	ConditionUnknown Condition = "不明"
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeatherSnapshot is the aggregated daily weather view returned to callers
// and stored in the cache. It is constructed once and never partially
// updated; a newer snapshot always replaces the whole record.
type WeatherSnapshot struct {
	Date        string    `json:"date"` // YYYY-MM-DD
	Weather     Condition `json:"weather"`
	RainMM      float64   `json:"rain_mm"`
	Pop         *float64  `json:"pop,omitempty"` // percent, 0-100
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Icon        string    `json:"icon,omitempty"`
}

// CurrentConditions is the point-in-time reading from the provider's
// current-weather endpoint.
type CurrentConditions struct {
	Description string
	Icon        string
	Temperature *float64
	Humidity    *float64
}

// ForecastSample is one 3-hour bucket of the provider's forecast series,
// ordered by Timestamp ascending.
type ForecastSample struct {
	Timestamp   time.Time
	Description string
	Rain3h      float64 // mm over the 3-hour bucket
	Pop         float64 // probability of precipitation, 0-1
	Temperature *float64
	Humidity    *float64
}

// HistoricalHourRain is a per-source "value or absent" result for one past
// hour. Absent hours contribute zero to the daily aggregate.
type HistoricalHourRain struct {
	Timestamp time.Time
	RainMM    float64
	OK        bool
}

// Location is a registered place weather can be queried for. Latitude and
// Longitude are nil until geocoded; APIKey optionally overrides the global
// provider key for this location.
type Location struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	APIKey    string   `json:"-"`
}
