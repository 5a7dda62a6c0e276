// Package domain models the balloon constellation and aircraft state data
// that stratowatch ingests, and the pure geometry used to relate them.
//
// # Balloon Source
//
// Balloon positions come from the WindBorne constellation snapshot endpoints:
// one JSON file per hour label, GET <endpoint>/<HH>.json for HH in "00"
// through "23", where "23" is the most recent hour. The payload arrives in
// one of two incompatible shapes, auto-detected per file:
//
// Tuple schema — an array of numeric triples, no native identifier:
//
//	[[12.3, -45.6, 13.1], [lat, lon, alt], ...]
//
//	Altitude is kilometers; converted to meters (×1000). Because the shape
//	carries no id, one is synthesized as "<source>-H<hour>-<index>". Two
//	balloons at the same index in different hours are therefore distinct
//	entities; no cross-hour identity exists for this shape.
//
// Object schema — an array of objects with an explicit id and coordinates
// under either of two naming conventions:
//
//	[{"id": "b-17", "lat": 40.1, "lon": -99.2, "alt": 41000}, ...]
//	[{"id": "b-17", "latitude": 40.1, "longitude": -99.2, "altitude": 41000}, ...]
//
//	Altitude is feet; converted to meters (×0.3048), defaulting to 0 when
//	absent. Ids are stable across hours, so cross-hour deduplication applies.
//
// # Aircraft Source
//
// Aircraft states come from an OpenSky-style /states/all endpoint scoped by
// a bounding box. Each state is a positional array; the indices consumed
// here are icao24 (0), callsign (1), origin_country (2), longitude (5),
// latitude (6), baro_altitude (7, nullable), on_ground (8). Rows missing
// coordinates or flagged on ground never become records.
//
// # Deduplication
//
// The history aggregator walks hours 23 down to 0 and keeps the first record
// seen per id. Because iteration is most-recent-first, first-write-wins is
// equivalent to latest-observation-wins.
package domain
