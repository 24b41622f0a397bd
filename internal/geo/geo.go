package geo

import (
	"math"

	"github.com/example/courier-orders/internal/models"
)

// Haversine distance in meters between two lat/lon points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// DistanceMeters is Haversine over coordinate pairs.
func DistanceMeters(a, b models.Coordinates) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Extent is a lon/lat bounding box used as the service-area containment
// predicate. Coarse on purpose; the geocoder's own country filter does the
// fine-grained work on lookups.
type Extent struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

func (e Extent) Contains(c models.Coordinates) bool {
	return c.Valid() &&
		c.Lon >= e.MinLon && c.Lon <= e.MaxLon &&
		c.Lat >= e.MinLat && c.Lat <= e.MaxLat
}

// FranceExtent covers metropolitan France including Corsica.
var FranceExtent = Extent{MinLon: -5.2, MinLat: 41.3, MaxLon: 9.6, MaxLat: 51.1}
