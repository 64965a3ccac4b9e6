package wshub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/M-Kouli/Data-Collection-System/internal/adapters/observability"
	"github.com/M-Kouli/Data-Collection-System/internal/app/pipeline"
	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// ServeDevice upgrades a device connection and processes its message stream.
// All messages from one connection are handled on this goroutine, which is
// what guarantees per-device arrival order through the pipeline.
func (h *Hub) ServeDevice(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.obs.LogError("device upgrade failed", err)
		return
	}
	defer conn.Close()

	h.deviceGauge(1)
	defer h.deviceGauge(-1)

	conn.SetReadLimit(maxMessageSize)

	// The oven identity bound to this connection by its identify message.
	// Transport closure releases it as a Disconnected transition.
	boundID := ""
	defer func() {
		if boundID != "" {
			if err := h.sessions.Disconnect(r.Context(), boundID); err != nil {
				h.obs.LogError("disconnect transition failed", err,
					ports.Field{Key: "oven", Value: boundID})
			}
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.obs.LogError("device read failed", err, ports.Field{Key: "oven", Value: boundID})
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			h.reply(conn, fmt.Sprintf("malformed frame: %v", err))
			continue
		}

		if err := h.handleDeviceFrame(r, frame, &boundID); err != nil {
			if errors.Is(err, pipeline.ErrValidation) {
				h.reply(conn, err.Error())
			}
			// Internal failures are already logged by the pipeline; the
			// stream continues with the next message either way.
		}
	}
}

func (h *Hub) handleDeviceFrame(r *http.Request, frame inboundFrame, boundID *string) error {
	ctx := r.Context()

	switch frame.Type {
	case frameIdentify:
		if frame.ClientID == "" {
			return fmt.Errorf("%w: identify requires a clientId", pipeline.ErrValidation)
		}
		*boundID = frame.ClientID
		return h.sessions.Identify(ctx, frame.ClientID)

	case frameOvenActive:
		ref, err := decodeOvenRef(frame.Data)
		if err != nil {
			return err
		}
		_, err = h.sessions.Activate(ctx, ref.OvenID)
		return err

	case frameStop:
		ref, err := decodeOvenRef(frame.Data)
		if err != nil {
			return err
		}
		return h.sessions.Stop(ctx, ref.OvenID)

	case frameNewData:
		var sf sampleFrame
		if err := json.Unmarshal(frame.Data, &sf); err != nil {
			return fmt.Errorf("%w: malformed sample: %w", pipeline.ErrValidation, err)
		}
		return h.ingest.Ingest(ctx, sf.toRaw())

	default:
		return fmt.Errorf("%w: unknown frame type %q", pipeline.ErrValidation, frame.Type)
	}
}

func decodeOvenRef(data json.RawMessage) (ovenRef, error) {
	var ref ovenRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return ovenRef{}, fmt.Errorf("%w: malformed oven reference: %w", pipeline.ErrValidation, err)
	}
	if ref.OvenID == "" {
		return ovenRef{}, fmt.Errorf("%w: ovenId is required", pipeline.ErrValidation)
	}
	return ref, nil
}

// reply reports a rejection back to the producer. Write failures surface on
// the next read, so they are not separately handled here.
func (h *Hub) reply(conn *websocket.Conn, message string) {
	frame := domain.Event{Type: domain.EventType(frameError), Data: errorBody{Message: message}}
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Hub) deviceGauge(delta float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.devices += delta
	h.obs.SetGauge(observability.MetricDevicesGauge, h.devices)
}
