// Package geocode resolves free-text addresses to coordinates. Two
// implementations exist: the Nominatim HTTP API (default, no key needed)
// and Google's geocoding service.
package geocode

import (
	"context"

	"github.com/mizukake/tenki/internal/models"
)

type Resolver interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
}
