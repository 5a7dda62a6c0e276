package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stateResponse is the wire shape of the aircraft feed. States is null when
// no aircraft are inside the queried box; that is a valid empty result.
type stateResponse struct {
	Time   int64   `json:"time"`
	States [][]any `json:"states"`
}

// Positional indices in an aircraft state vector.
const (
	stateICAO24       = 0
	stateCallsign     = 1
	stateCountry      = 2
	stateLongitude    = 5
	stateLatitude     = 6
	stateBaroAltitude = 7
	stateOnGround     = 8
)

// ParseAircraftStates converts a raw aircraft feed body into records.
// Rows missing latitude or longitude, or flagged on ground, are excluded
// here and never enter the set. Callsigns are trimmed, defaulting to "N/A".
func ParseAircraftStates(body []byte) ([]AircraftRecord, error) {
	var resp stateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse aircraft states: %w", err)
	}

	records := make([]AircraftRecord, 0, len(resp.States))
	for _, s := range resp.States {
		if len(s) <= stateOnGround {
			continue
		}
		lon := floatAt(s, stateLongitude)
		lat := floatAt(s, stateLatitude)
		if lat == nil || lon == nil || boolAt(s, stateOnGround) {
			continue
		}

		callsign := strings.TrimSpace(stringAt(s, stateCallsign))
		if callsign == "" {
			callsign = "N/A"
		}

		records = append(records, AircraftRecord{
			ICAO24:        stringAt(s, stateICAO24),
			Callsign:      callsign,
			OriginCountry: stringAt(s, stateCountry),
			Lat:           *lat,
			Lon:           *lon,
			BaroAltitude:  floatAt(s, stateBaroAltitude),
		})
	}
	return records, nil
}

func stringAt(s []any, i int) string {
	if i >= len(s) {
		return ""
	}
	v, _ := s[i].(string)
	return v
}

func floatAt(s []any, i int) *float64 {
	if i >= len(s) {
		return nil
	}
	v, ok := s[i].(float64)
	if !ok {
		return nil
	}
	return &v
}

func boolAt(s []any, i int) bool {
	if i >= len(s) {
		return false
	}
	v, _ := s[i].(bool)
	return v
}
