// Package geodist computes great-circle distances between coordinates.
package geodist

import "math"

// earthRadiusKM is the mean Earth radius used by the haversine formula.
const earthRadiusKM = 6371.0

// Kilometers returns the great-circle distance between two points given as
// decimal-degree latitude/longitude pairs.
func Kilometers(aLat, aLon, bLat, bLon float64) float64 {
	dLat := radians(bLat - aLat)
	dLon := radians(bLon - aLon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(aLat))*math.Cos(radians(bLat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKM * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
