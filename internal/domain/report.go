package domain

import "time"

// BalloonReport is the result of one 24-hour aggregation run: the capped,
// deduplicated balloon set plus the partial-failure diagnostics that let a
// caller distinguish "upstream is down" from "upstream has no data".
type BalloonReport struct {
	Balloons []BalloonRecord `json:"balloons"`
	// TotalFound counts unique balloons before the result cap was applied.
	TotalFound int            `json:"total_found"`
	AnyFailed  bool           `json:"any_failed"`
	Errors     []string       `json:"errors,omitempty"`
	Outcomes   []FetchOutcome `json:"outcomes,omitempty"`
	FetchedAt  time.Time      `json:"fetched_at"`
}

// HardFailure reports whether the run must be escalated: zero usable records
// despite at least one failed hour. Empty with zero failures is a valid
// "no data this period" outcome.
func (r BalloonReport) HardFailure() bool {
	return len(r.Balloons) == 0 && r.AnyFailed
}
