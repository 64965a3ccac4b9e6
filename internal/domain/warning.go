package domain

import "slices"

// FailureTracker accumulates outliers for one oven within a run: a cumulative
// count and a de-duplicated set of failure-type labels. It is reset exactly
// when the oven's run ends.
type FailureTracker struct {
	Count    int      `json:"count"`
	Failures []string `json:"failures"`
}

// Record increments the cumulative count and adds failureType to the set if
// it is not already present.
func (t *FailureTracker) Record(failureType string) {
	t.Count++
	if !slices.Contains(t.Failures, failureType) {
		t.Failures = append(t.Failures, failureType)
	}
}

// Reset clears the tracker for a new run.
func (t *FailureTracker) Reset() {
	t.Count = 0
	t.Failures = nil
}

// WarningSettings holds the per-oven warning configuration and the tracker
// state persisted alongside it.
type WarningSettings struct {
	OvenName        string         `json:"ovenName"`
	WarningsEnabled bool           `json:"warningsEnabled"`
	Tracker         FailureTracker `json:"failureTracker"`
}

// Warning is the broadcast payload raised when a sample value falls outside
// its configured control limits.
type Warning struct {
	OvenID      string         `json:"ovenId"`
	FailureType string         `json:"failureType"`
	Tracker     FailureTracker `json:"failureTracker"`
}

// FailureType returns the warning label for an out-of-range value on c.
func FailureType(c Channel) string {
	if c == ChannelTemperature {
		return "Temperature Out of Range"
	}
	return string(c) + " Out of Range"
}
