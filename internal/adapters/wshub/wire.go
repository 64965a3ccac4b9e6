package wshub

import (
	"encoding/json"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
)

// Inbound message types accepted on the device socket.
const (
	frameIdentify   = "identify"
	frameOvenActive = "ovenActive"
	frameStop       = "stop"
	frameNewData    = "newOvenData"
	frameError      = "error"
)

// inboundFrame is the envelope every device message arrives in.
type inboundFrame struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type ovenRef struct {
	OvenID string `json:"ovenId"`
}

type errorBody struct {
	Message string `json:"message"`
}

// sampleFrame is the flat wire shape devices emit, mirroring the historical
// transmitter protocol: one field per channel, absent channels omitted.
type sampleFrame struct {
	OvenID      string   `json:"ovenId"`
	Timestamp   string   `json:"timestamp,omitempty"`
	DataType    string   `json:"dataType"`
	BoardID     string   `json:"boardId,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	P1          *float64 `json:"p1,omitempty"`
	P2          *float64 `json:"p2,omitempty"`
	T1          *float64 `json:"t1,omitempty"`
	T2          *float64 `json:"t2,omitempty"`
	Vx          *float64 `json:"vx,omitempty"`
	Vz          *float64 `json:"vz,omitempty"`
	Ct          *float64 `json:"ct,omitempty"`
	Vt          *float64 `json:"vt,omitempty"`
}

// toRaw converts the flat frame into the core's sparse channel-value form.
func (f sampleFrame) toRaw() domain.RawSample {
	values := make(map[domain.Channel]float64)
	put := func(c domain.Channel, v *float64) {
		if v != nil {
			values[c] = *v
		}
	}
	put(domain.ChannelTemperature, f.Temperature)
	put(domain.ChannelP1, f.P1)
	put(domain.ChannelP2, f.P2)
	put(domain.ChannelT1, f.T1)
	put(domain.ChannelT2, f.T2)
	put(domain.ChannelVx, f.Vx)
	put(domain.ChannelVz, f.Vz)
	put(domain.ChannelCt, f.Ct)
	put(domain.ChannelVt, f.Vt)

	return domain.RawSample{
		OvenID:    f.OvenID,
		Kind:      domain.RecordKind(f.DataType),
		BoardID:   f.BoardID,
		Timestamp: f.Timestamp,
		Values:    values,
	}
}
