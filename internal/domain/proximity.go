package domain

// NearestAircraft returns the aircraft closest to the balloon by great-circle
// distance, with that distance in kilometers. Returns (nil, 0) when no
// balloon is selected or the set is empty. Ties keep the first-encountered
// minimum, so the result is deterministic for a fixed input order. Linear
// scan: invoked once per selection, not on a timer.
func NearestAircraft(balloon *BalloonRecord, aircraft []AircraftRecord) (*AircraftRecord, float64) {
	if balloon == nil || len(aircraft) == 0 {
		return nil, 0
	}

	var nearest *AircraftRecord
	minKm := 0.0
	for i := range aircraft {
		d := Distance(balloon.Lat, balloon.Lon, aircraft[i].Lat, aircraft[i].Lon)
		if nearest == nil || d < minKm {
			nearest = &aircraft[i]
			minKm = d
		}
	}
	return nearest, minKm
}
