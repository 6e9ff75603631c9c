package geospatial

import "math"

// EarthRadius is the mean Earth radius in meters used by both the distance
// and the projection helpers.
const EarthRadius = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadius * c
}

// DiagonalSpan returns the great-circle length of the diagonal of the box
// spanned by the given corners, in meters.
func DiagonalSpan(minLat, minLon, maxLat, maxLon float64) float64 {
	return Haversine(minLat, minLon, maxLat, maxLon)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
