package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used by the haversine formula.
const EarthRadiusMiles = 3958.8

// ErrInvalidInput is returned when a coordinate is NaN or infinite.
var ErrInvalidInput = errors.New("geo: invalid input")

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// MilesTo returns the great-circle distance from p to q in miles.
func (p Point) MilesTo(q Point) (float64, error) {
	return DistanceMiles(p.Lat, p.Lon, q.Lat, q.Lon)
}

// DistanceMiles calculates the great-circle distance between two points
// using the haversine formula. Returns distance in miles.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) (float64, error) {
	for i, v := range [...]float64{lat1, lon1, lat2, lon2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: coordinate %d is %v", ErrInvalidInput, i+1, v)
		}
	}

	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLat := toRadians(lat2 - lat1)
	deltaLon := toRadians(lon2 - lon1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c, nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
