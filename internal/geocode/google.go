package geocode

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"
	"github.com/mizukake/tenki/internal/models"
)

// GoogleResolver resolves addresses through Google's geocoding API.
type GoogleResolver struct{}

func NewGoogleResolver(apiKey string) *GoogleResolver {
	geocoder.ApiKey = apiKey
	return &GoogleResolver{}
}

func (r *GoogleResolver) Geocode(_ context.Context, address string) (models.Coordinates, error) {
	location, err := geocoder.Geocoding(geocoder.Address{Street: address})
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("querying google geocoder: %w", err)
	}

	return models.Coordinates{
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
	}, nil
}
