// Package position answers whether two devices are close enough to trust
// each other and abstracts the device's position receiver.
package position

import "math"

// EarthRadiusMeters средний радиус Земли
const EarthRadiusMeters = 6371e3

// DefaultProximityThreshold is the distance in meters under which two
// devices are considered to be at the same place
const DefaultProximityThreshold = 100.0

// Coordinates is a point in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceMeters returns the great-circle (Haversine) distance between a and b.
// Equal points are exactly 0 apart and the result does not depend on argument order.
func DistanceMeters(a, b Coordinates) float64 {
	if a == b {
		return 0
	}

	phi1 := radians(a.Latitude)
	phi2 := radians(b.Latitude)
	// модуль разности, чтобы результат не зависел от порядка аргументов
	dPhi := radians(math.Abs(b.Latitude - a.Latitude))
	dLambda := radians(math.Abs(b.Longitude - a.Longitude))

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	if h > 1 {
		h = 1
	}

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// IsInProximity reports whether a and b are at most thresholdMeters apart
func IsInProximity(a, b Coordinates, thresholdMeters float64) bool {
	return DistanceMeters(a, b) <= thresholdMeters
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
