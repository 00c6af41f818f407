package geo

import (
	"math"
)

// EarthRadiusM is the mean Earth radius in meters used by the haversine
// formula. Client and server must agree on this constant so proximity
// thresholds line up.
const EarthRadiusM = 6371000.0

// HaversineDistance returns the great-circle distance in meters between two
// WGS-84 coordinates on a spherical Earth approximation.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ValidateCoordinates checks if latitude and longitude are valid
// Latitude must be between -90 and 90
// Longitude must be between -180 and 180
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// HasValidCoordinates additionally rejects the (0, 0) null island pair,
// which in practice indicates missing data.
func HasValidCoordinates(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return ValidateCoordinates(lat, lon)
}
