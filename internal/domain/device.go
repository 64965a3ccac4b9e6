package domain

// Device is a registered oven: a stable named entity with a category tag, a
// board count, and per-channel control limits. Devices are created and
// updated through the registry API; the ingestion core reads them only.
type Device struct {
	Name       string                    `json:"name"`
	Category   string                    `json:"category"`
	BoardCount int                       `json:"numberOfBoards"`
	Limits     map[Channel]ControlLimits `json:"parameters"`
}

// LimitsFor returns the configured limits for c; the zero pair (no limits)
// when the channel has none.
func (d Device) LimitsFor(c Channel) ControlLimits {
	return d.Limits[c]
}
