package cache

import "strconv"

// Key derives the cache key for a coordinate pair and a YYYY-MM-DD date.
// Coordinates are rendered in their shortest exact decimal form, so two
// calls with identical inputs always produce identical keys and distinct
// triples cannot collide.
func Key(lat, lon float64, date string) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "_" +
		strconv.FormatFloat(lon, 'f', -1, 64) + "_" +
		date
}
