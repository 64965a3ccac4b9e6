package domain

import "errors"

// Channel identifies one measured parameter on an oven or on a board
// travelling through it.
type Channel string

const (
	ChannelTemperature Channel = "temperature"
	ChannelP1          Channel = "p1"
	ChannelP2          Channel = "p2"
	ChannelT1          Channel = "t1"
	ChannelT2          Channel = "t2"
	ChannelVx          Channel = "vx"
	ChannelVz          Channel = "vz"
	ChannelCt          Channel = "ct"
	ChannelVt          Channel = "vt"
)

// boardChannels is the fixed evaluation order for board-level records.
var boardChannels = []Channel{
	ChannelP1, ChannelP2, ChannelT1, ChannelT2,
	ChannelVx, ChannelVz, ChannelCt, ChannelVt,
}

// BoardChannels returns the per-board channels in evaluation order.
func BoardChannels() []Channel {
	out := make([]Channel, len(boardChannels))
	copy(out, boardChannels)
	return out
}

// RecordKind discriminates oven-level from board-level samples.
type RecordKind string

const (
	KindOven  RecordKind = "Oven"
	KindBoard RecordKind = "Board"
)

var (
	// ErrMissingBoardID is returned when a board-level record omits its board identity.
	ErrMissingBoardID = errors.New("board record requires a board id")
	// ErrMissingTemperature is returned when an oven-level record carries no temperature value.
	ErrMissingTemperature = errors.New("oven record requires a temperature value")
	// ErrMissingOvenID is returned when a record does not name its oven.
	ErrMissingOvenID = errors.New("record requires an oven id")
	// ErrUnknownKind is returned for a record kind other than Oven or Board.
	ErrUnknownKind = errors.New("unknown record kind")
)

// ControlLimits is a configured bound pair for one channel. Either side may
// be absent, meaning no limit is configured for that side.
type ControlLimits struct {
	Upper *float64 `json:"upper" yaml:"upper"`
	Lower *float64 `json:"lower" yaml:"lower"`
}

// Configured reports whether both bounds are present. Evaluation only makes
// sense against a fully configured pair.
func (l ControlLimits) Configured() bool {
	return l.Upper != nil && l.Lower != nil
}

// Outside reports whether v lies strictly outside [lower, upper].
// Unconfigured limits never match: absence of limits means no opinion.
func (l ControlLimits) Outside(v float64) bool {
	if !l.Configured() {
		return false
	}
	return v < *l.Lower || v > *l.Upper
}

// Reading is one channel value together with the control limits that were in
// effect when the sample was ingested. The snapshot is stored alongside the
// value so historical queries reproduce the limits that applied at the time,
// independent of later reconfiguration.
type Reading struct {
	Value float64  `json:"value"`
	Upper *float64 `json:"upperControlLimit,omitempty"`
	Lower *float64 `json:"lowerControlLimit,omitempty"`
}

// Limits returns the snapshot bounds as a ControlLimits pair.
func (r Reading) Limits() ControlLimits {
	return ControlLimits{Upper: r.Upper, Lower: r.Lower}
}

// RawSample is a measurement event as it arrives from a device, before
// enrichment. Values is sparse: only the channels the device reported are
// present.
type RawSample struct {
	OvenID    string
	Kind      RecordKind
	BoardID   string
	Timestamp string // client-supplied, optional
	Values    map[Channel]float64
}

// Sample is an enriched, immutable measurement event: timestamped, attributed
// to an oven (and optionally a run), with a control-limit snapshot attached
// to every populated channel.
type Sample struct {
	OvenID    string              `json:"ovenId"`
	Timestamp string              `json:"timestamp"`
	Kind      RecordKind          `json:"dataType"`
	BoardID   string              `json:"boardId,omitempty"`
	RunID     int64               `json:"runId,omitempty"`
	Readings  map[Channel]Reading `json:"readings"`
}

// NewOvenSample constructs an oven-level sample. The temperature channel is
// structurally required for this kind.
func NewOvenSample(ovenID, timestamp string, readings map[Channel]Reading) (Sample, error) {
	if ovenID == "" {
		return Sample{}, ErrMissingOvenID
	}
	if _, ok := readings[ChannelTemperature]; !ok {
		return Sample{}, ErrMissingTemperature
	}
	return Sample{
		OvenID:    ovenID,
		Timestamp: timestamp,
		Kind:      KindOven,
		Readings:  readings,
	}, nil
}

// NewBoardSample constructs a board-level sample. Only the board id is
// structurally required; board channels are independently optional.
func NewBoardSample(ovenID, boardID, timestamp string, readings map[Channel]Reading) (Sample, error) {
	if ovenID == "" {
		return Sample{}, ErrMissingOvenID
	}
	if boardID == "" {
		return Sample{}, ErrMissingBoardID
	}
	return Sample{
		OvenID:    ovenID,
		Timestamp: timestamp,
		Kind:      KindBoard,
		BoardID:   boardID,
		Readings:  readings,
	}, nil
}

// Reading returns the reading for c, if populated.
func (s Sample) Reading(c Channel) (Reading, bool) {
	r, ok := s.Readings[c]
	return r, ok
}
