package domain

import "math"

// earthRadiusMeters is the IUGG mean earth radius
const earthRadiusMeters = 6371008.8

// Distance returns the haversine distance in meters between two points,
// rounded to 2 decimal places so results are stable across platforms
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	const rad = math.Pi / 180

	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusMeters*c*100) / 100
}
