package duplicates

import (
	"fmt"
	"math"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula
const earthRadiusMeters = 6371000.0

// sameLocationThresholdMeters is the cutoff under which two reports are
// described as being at the same location.
const sameLocationThresholdMeters = 10.0

// Distance returns the great-circle distance in meters between two
// coordinates given in degrees. It uses the haversine formula in atan2 form,
// which stays numerically stable across the full latitude/longitude range.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// FormatDistance renders a distance in meters as a human-readable label
func FormatDistance(meters float64) string {
	if meters < sameLocationThresholdMeters {
		return "same location"
	}
	return fmt.Sprintf("%dm away", int(math.Round(meters)))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
