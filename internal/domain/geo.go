package domain

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// points, using the haversine formula. It is symmetric, returns 0 for
// identical points, and stays stable across the antimeridian and near the
// poles (longitudes enter only through the cosine of their difference).
func Distance(aLat, aLon, bLat, bLon float64) float64 {
	phi1 := aLat * math.Pi / 180
	phi2 := bLat * math.Pi / 180
	dPhi := (bLat - aLat) * math.Pi / 180
	dLambda := (bLon - aLon) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)

	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	// Rounding can push h a hair past 1 for near-antipodal points.
	if h > 1 {
		h = 1
	}
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// ComputeBounds returns the bounding box enclosing all balloons, expanded by
// padding degrees on every side and clamped to legal coordinate ranges.
// Returns nil for an empty set: the caller must fall back to a default
// region or skip the dependent fetch. A single point receives the same
// padding as any other set.
func ComputeBounds(balloons []BalloonRecord, padding float64) *BoundingBox {
	if len(balloons) == 0 {
		return nil
	}

	minLat, maxLat := 90.0, -90.0
	minLon, maxLon := 180.0, -180.0
	for _, b := range balloons {
		minLat = math.Min(minLat, b.Lat)
		maxLat = math.Max(maxLat, b.Lat)
		minLon = math.Min(minLon, b.Lon)
		maxLon = math.Max(maxLon, b.Lon)
	}

	return &BoundingBox{
		MinLat: math.Max(-90, minLat-padding),
		MaxLat: math.Min(90, maxLat+padding),
		MinLon: math.Max(-180, minLon-padding),
		MaxLon: math.Min(180, maxLon+padding),
	}
}
