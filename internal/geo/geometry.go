package geo

import "math"

const earthRadiusM = 6371000.0

// Distance returns the great-circle distance in meters between two points
// (haversine).
func Distance(a, b Coordinates) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// Bearing returns the initial bearing in degrees from a to b, normalized to
// [0, 360).
func Bearing(a, b Coordinates) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := degrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// ElevationAngle returns the angle in degrees of the line of sight from a
// to b, positive when the target sits above the firing point. Zero when the
// points coincide.
func ElevationAngle(a, b Coordinates) float64 {
	dist := Distance(a, b)
	if dist == 0 {
		return 0
	}
	return degrees(math.Atan2(b.ElevationM-a.ElevationM, dist))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
