package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mizukake/tenki/internal/models"
	"github.com/mizukake/tenki/pkg/http/client"
	"github.com/rs/zerolog/log"
)

// NominatimResolver queries the OpenStreetMap Nominatim search API.
// Nominatim requires an identifying User-Agent, which the HTTP client is
// expected to carry.
type NominatimResolver struct {
	httpClient *client.Client
}

func NewNominatimResolver(httpClient *client.Client) *NominatimResolver {
	return &NominatimResolver{httpClient: httpClient}
}

func (r *NominatimResolver) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", address)

	resp, err := r.httpClient.Get(ctx, "/search?"+q.Encode())
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("querying nominatim: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Coordinates{}, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	// Nominatim returns coordinates as decimal strings.
	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(resp.Body, &results); err != nil {
		return models.Coordinates{}, fmt.Errorf("decoding nominatim response: %w", err)
	}
	if len(results) == 0 {
		return models.Coordinates{}, fmt.Errorf("no geocoding results for address")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parsing longitude: %w", err)
	}

	log.Debug().Float64("lat", lat).Float64("lon", lon).Msg("Geocoded address")
	return models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
