// Package geo provides distance math and the nearest-metro lookup used to plan journeys.
package geo

import (
	"math"

	"roadchal/internal/domain"
)

const earthRadiusM = 6371000

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance returns the distance in meters between two places.
func Distance(a, b domain.Place) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ValidCoordinates reports whether lat/lng are within range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
