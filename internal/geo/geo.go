// Package geo provides great-circle distance calculations for proximity
// matching between detections and subscriber locations.
package geo

import "math"

// EarthRadiusKm is the fixed mean Earth radius used for all distance math.
const EarthRadiusKm = 6371.0

// DistanceKm computes the haversine great-circle distance in kilometers
// between two points given in decimal degrees. Identical points yield
// exactly 0. Pure function, no validation of input range.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Between computes the distance between two points whose coordinates may be
// absent. The second return is false when any coordinate is nil; callers
// must treat that as "cannot evaluate", never as zero distance.
func Between(lat1, lon1, lat2, lon2 *float64) (float64, bool) {
	if lat1 == nil || lon1 == nil || lat2 == nil || lon2 == nil {
		return 0, false
	}
	return DistanceKm(*lat1, *lon1, *lat2, *lon2), true
}

// Round2 rounds a distance to two decimal places, the precision persisted
// on alert records.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds a distance to one decimal place, used for display values
// such as the nearest-authority lookup.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
