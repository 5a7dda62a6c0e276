package domain

import (
	"encoding/json"
	"fmt"
)

// Unit conversions to canonical meters.
const (
	tupleAltKmToMeters  = 1000.0
	objectAltFtToMeters = 0.3048
)

// Normalizer converts one hour's raw snapshot payload into canonical balloon
// records. The two raw schemas each map through their own pure conversion
// path; the discriminator is the shape of the first element.
type Normalizer struct {
	// Source labels synthesized tuple-schema ids: "<Source>-H<hour>-<index>".
	Source string
	// Region, when non-nil, drops records outside the box. Region filtering
	// is a deployment option, not intrinsic to normalization.
	Region *BoundingBox
}

// Snapshot is the normalizer output for one hour.
type Snapshot struct {
	Records []BalloonRecord
	// Malformed is set when the payload was present but unparseable. Soft:
	// the hour contributes zero records and the run continues.
	Malformed bool
}

// rawObject covers both object-schema naming conventions. Pointer fields
// distinguish absent from zero.
type rawObject struct {
	ID        *string  `json:"id"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Alt       *float64 `json:"alt"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
}

// Parse normalizes one hour's raw JSON body. An hour with no data (empty
// array, null, a non-array body, or an unrecognized element shape) is a
// valid empty result; only a body that fails to parse as JSON at all is
// flagged malformed.
func (n Normalizer) Parse(body []byte, hour string) Snapshot {
	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		if json.Valid(body) {
			return Snapshot{}
		}
		return Snapshot{Malformed: true}
	}
	if len(elements) == 0 {
		return Snapshot{}
	}

	var tuple []float64
	if err := json.Unmarshal(elements[0], &tuple); err == nil && len(tuple) > 0 {
		return n.parseTuples(elements, hour)
	}

	var obj rawObject
	if err := json.Unmarshal(elements[0], &obj); err == nil && obj.ID != nil {
		return n.parseObjects(elements)
	}

	return Snapshot{}
}

// parseTuples handles the [lat, lon, alt?] schema. The id is synthesized
// from the source hour and positional index, so no cross-hour identity
// exists for this shape. Altitude arrives in kilometers. Elements decode as
// pointer slices so a null coordinate skips the row instead of coercing to 0.
func (n Normalizer) parseTuples(elements []json.RawMessage, hour string) Snapshot {
	records := make([]BalloonRecord, 0, len(elements))
	for i, el := range elements {
		var t []*float64
		if err := json.Unmarshal(el, &t); err != nil || len(t) < 2 {
			continue
		}
		if t[0] == nil || t[1] == nil {
			continue
		}
		lat, lon := *t[0], *t[1]
		if n.Region != nil && !n.Region.Contains(lat, lon) {
			continue
		}
		var alt float64
		if len(t) >= 3 && t[2] != nil {
			alt = *t[2] * tupleAltKmToMeters
		}
		records = append(records, BalloonRecord{
			ID:  fmt.Sprintf("%s-H%s-%d", n.Source, hour, i),
			Lat: lat,
			Lon: lon,
			Alt: alt,
		})
	}
	return Snapshot{Records: records}
}

// parseObjects handles the id-tagged object schema, reading coordinates from
// lat/lon with latitude/longitude fallbacks. Altitude arrives in feet,
// defaulting to 0 when absent. Records missing id or either coordinate are
// skipped.
func (n Normalizer) parseObjects(elements []json.RawMessage) Snapshot {
	records := make([]BalloonRecord, 0, len(elements))
	for _, el := range elements {
		var o rawObject
		if err := json.Unmarshal(el, &o); err != nil {
			continue
		}
		lat := coalesce(o.Lat, o.Latitude)
		lon := coalesce(o.Lon, o.Longitude)
		if o.ID == nil || *o.ID == "" || lat == nil || lon == nil {
			continue
		}
		if n.Region != nil && !n.Region.Contains(*lat, *lon) {
			continue
		}
		var alt float64
		if a := coalesce(o.Alt, o.Altitude); a != nil {
			alt = *a
		}
		records = append(records, BalloonRecord{
			ID:  *o.ID,
			Lat: *lat,
			Lon: *lon,
			Alt: alt * objectAltFtToMeters,
		})
	}
	return Snapshot{Records: records}
}

func coalesce(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
