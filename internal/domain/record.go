package domain

// BalloonRecord is the canonical balloon position produced by the snapshot
// normalizer, regardless of which raw schema it came from. Records are built
// fresh per aggregation run and never mutated afterwards.
type BalloonRecord struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	// Alt is meters above sea level. Sources that omit altitude contribute 0.
	Alt float64 `json:"alt"`
}

// AircraftRecord is one airborne aircraft from the live state feed. Rows with
// missing coordinates or flagged on ground are dropped at normalization time
// and never become records.
type AircraftRecord struct {
	ICAO24        string   `json:"icao24"`
	Callsign      string   `json:"callsign"`
	OriginCountry string   `json:"origin_country"`
	Lat           float64  `json:"lat"`
	Lon           float64  `json:"lon"`
	BaroAltitude  *float64 `json:"baro_altitude"` // meters; nil when the feed reports null
}

// BoundingBox is a rectangular lat/lon region. Invariants: MinLat <= MaxLat,
// MinLon <= MaxLon, all values within legal coordinate ranges.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point lies inside the box, boundary inclusive.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
