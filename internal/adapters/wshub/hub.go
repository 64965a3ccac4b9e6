// Package wshub is the websocket transport: devices push samples and
// lifecycle messages over one endpoint, observers subscribe to the broadcast
// feed over another. The hub is the system's Broadcaster: delivery to each
// observer is non-blocking, so one slow browser never stalls ingestion or
// its neighbours.
package wshub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/M-Kouli/Data-Collection-System/internal/adapters/observability"
	"github.com/M-Kouli/Data-Collection-System/internal/app/pipeline"
	"github.com/M-Kouli/Data-Collection-System/internal/app/session"
	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	defaultObserverBuffer = 256
)

// Hub terminates device and observer websocket connections and fans events
// out to every observer.
type Hub struct {
	sessions *session.Registry
	ingest   *pipeline.Ingestor
	warnings ports.WarningStore
	obs      ports.Observability

	upgrader       websocket.Upgrader
	observerBuffer int

	mu        sync.RWMutex
	observers map[string]*observer
	devices   float64
}

// New wires a hub over the session registry and ingestion pipeline.
// observerBuffer caps the per-observer outbound queue; 0 picks the default.
func New(sessions *session.Registry, ingest *pipeline.Ingestor, warnings ports.WarningStore, obs ports.Observability, observerBuffer int) *Hub {
	if obs == nil {
		obs = observability.Discard()
	}
	if observerBuffer <= 0 {
		observerBuffer = defaultObserverBuffer
	}
	return &Hub{
		sessions: sessions,
		ingest:   ingest,
		warnings: warnings,
		obs:      obs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from arbitrary hosts on the plant
			// network; origin checks are the identity proxy's concern.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		observerBuffer: observerBuffer,
		observers:      make(map[string]*observer),
	}
}

// Broadcast implements ports.Broadcaster. The event is serialized once and
// queued to every observer; a full queue drops the frame for that observer
// only.
func (h *Hub) Broadcast(ev domain.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.obs.LogError("broadcast encode failed", err, ports.Field{Key: "type", Value: string(ev.Type)})
		return
	}

	start := time.Now()
	h.mu.RLock()
	for _, o := range h.observers {
		if !o.enqueue(payload) {
			h.obs.IncCounter(observability.MetricBroadcastDropped, 1)
		}
	}
	h.mu.RUnlock()
	h.obs.ObserveLatency(observability.MetricBroadcastLatency, time.Since(start).Seconds())
}

// ObserverCount reports the number of connected observers.
func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// ServeObserver upgrades an observer connection, sends the catch-up snapshot
// (current statuses and non-zero failure trackers, never historical
// samples), and joins it to the broadcast feed.
func (h *Hub) ServeObserver(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.obs.LogError("observer upgrade failed", err)
		return
	}

	o := &observer{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.observerBuffer),
		done: make(chan struct{}),
	}

	// Snapshot and registration happen under the same lock so no broadcast
	// can land between them: events raised while the snapshot is built are
	// held at the lock and delivered after it.
	h.mu.Lock()
	h.sendSnapshot(r.Context(), o)
	h.observers[o.id] = o
	count := len(h.observers)
	h.mu.Unlock()
	h.obs.SetGauge(observability.MetricObserversGauge, float64(count))
	h.obs.LogInfo("observer connected", ports.Field{Key: "observer", Value: o.id})

	go o.writePump()
	go o.readPump()
}

// sendSnapshot queues the catch-up frames. Called with h.mu held, which
// orders the snapshot before any live update; the store lookups must never
// re-enter the hub.
func (h *Hub) sendSnapshot(ctx context.Context, o *observer) {
	statuses, err := h.sessions.CurrentStatuses(ctx)
	if err != nil {
		h.obs.LogError("status snapshot failed", err)
	} else if len(statuses) > 0 {
		h.queueEvent(o, domain.Event{Type: domain.EventStatusSnapshot, Data: statuses})
	}

	tracked, err := h.warnings.Tracked(ctx)
	if err != nil {
		h.obs.LogError("warning snapshot failed", err)
	} else if len(tracked) > 0 {
		warnings := make([]domain.Warning, 0, len(tracked))
		for _, ws := range tracked {
			warnings = append(warnings, domain.Warning{OvenID: ws.OvenName, Tracker: ws.Tracker})
		}
		h.queueEvent(o, domain.Event{Type: domain.EventWarningSnapshot, Data: warnings})
	}
}

func (h *Hub) queueEvent(o *observer, ev domain.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.obs.LogError("snapshot encode failed", err, ports.Field{Key: "type", Value: string(ev.Type)})
		return
	}
	o.enqueue(payload)
}

func (h *Hub) dropObserver(o *observer) {
	h.mu.Lock()
	_, present := h.observers[o.id]
	delete(h.observers, o.id)
	count := len(h.observers)
	h.mu.Unlock()

	if present {
		h.obs.SetGauge(observability.MetricObserversGauge, float64(count))
		h.obs.LogInfo("observer disconnected", ports.Field{Key: "observer", Value: o.id})
	}
	o.close()
}

// Close tears down every observer connection.
func (h *Hub) Close() {
	h.mu.Lock()
	observers := make([]*observer, 0, len(h.observers))
	for _, o := range h.observers {
		observers = append(observers, o)
	}
	h.observers = make(map[string]*observer)
	h.mu.Unlock()

	for _, o := range observers {
		o.close()
	}
	h.obs.SetGauge(observability.MetricObserversGauge, 0)
}
