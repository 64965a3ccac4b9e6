// Package session owns the per-oven connection lifecycle: which ovens are
// connected, whether a run is open, and which run id new samples belong to.
// State transitions are serialized per oven, never behind one global lock,
// so one oven's churn cannot stall another's ingestion.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/M-Kouli/Data-Collection-System/internal/adapters/observability"
	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// Registry tracks live oven connections and their open runs. Every state
// transition is persisted to the status store and broadcast exactly once,
// synchronously with the mutation, so observers never see a stale state
// after receiving the event.
type Registry struct {
	runs     *RunTracker
	statuses ports.StatusStore
	warnings ports.WarningStore
	bus      ports.Broadcaster
	obs      ports.Observability
	clock    func() time.Time

	mu    sync.Mutex // guards the map itself, never held across transitions
	ovens map[string]*ovenState
}

type ovenState struct {
	mu      sync.Mutex
	status  domain.Status
	openRun int64 // 0 while no run is open
}

// NewRegistry wires a registry over the given stores and broadcaster.
func NewRegistry(store ports.EventStore, statuses ports.StatusStore, warnings ports.WarningStore, bus ports.Broadcaster, obs ports.Observability) *Registry {
	if obs == nil {
		obs = observability.Discard()
	}
	return &Registry{
		runs:     NewRunTracker(store),
		statuses: statuses,
		warnings: warnings,
		bus:      bus,
		obs:      obs,
		clock:    time.Now,
		ovens:    make(map[string]*ovenState),
	}
}

// SetClock overrides the transition timestamp source. Test hook.
func (r *Registry) SetClock(clock func() time.Time) { r.clock = clock }

func (r *Registry) state(oven string) *ovenState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.ovens[oven]
	if !ok {
		st = &ovenState{status: domain.StatusDisconnected}
		r.ovens[oven] = st
	}
	return st
}

// Identify registers a live connection under clientID and moves it to Idle.
// Re-identifying an already known client is not an error: last writer wins.
func (r *Registry) Identify(ctx context.Context, clientID string) error {
	st := r.state(clientID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.status = domain.StatusIdle
	st.openRun = 0
	return r.transition(ctx, clientID, domain.StatusIdle)
}

// Activate allocates the next run id for oven and moves it to Active. The
// run id is returned to the caller but is deliberately not part of the
// status broadcast payload.
func (r *Registry) Activate(ctx context.Context, oven string) (int64, error) {
	st := r.state(oven)
	st.mu.Lock()
	defer st.mu.Unlock()

	runID, err := r.runs.NextRunID(ctx, oven)
	if err != nil {
		return 0, err
	}
	st.status = domain.StatusActive
	st.openRun = runID
	if err := r.transition(ctx, oven, domain.StatusActive); err != nil {
		return 0, err
	}
	return runID, nil
}

// Stop closes the oven's run: Idle state, no open run, tracker reset. A
// second consecutive Stop is a harmless Idle→Idle transition; the tracker is
// already zero so re-resetting it is not observable.
func (r *Registry) Stop(ctx context.Context, oven string) error {
	st := r.state(oven)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.status = domain.StatusIdle
	st.openRun = 0
	if err := r.warnings.ResetTracker(ctx, oven); err != nil {
		r.obs.LogError("failure tracker reset failed", err, ports.Field{Key: "oven", Value: oven})
	}
	return r.transition(ctx, oven, domain.StatusIdle)
}

// Disconnect removes the connection handle for clientID, closing any open
// run and resetting the tracker.
func (r *Registry) Disconnect(ctx context.Context, clientID string) error {
	st := r.state(clientID)
	st.mu.Lock()
	st.status = domain.StatusDisconnected
	st.openRun = 0
	if err := r.warnings.ResetTracker(ctx, clientID); err != nil {
		r.obs.LogError("failure tracker reset failed", err, ports.Field{Key: "oven", Value: clientID})
	}
	err := r.transition(ctx, clientID, domain.StatusDisconnected)
	st.mu.Unlock()

	r.mu.Lock()
	delete(r.ovens, clientID)
	r.mu.Unlock()
	return err
}

// OpenRun reports the oven's open run id, if a run is open.
func (r *Registry) OpenRun(oven string) (int64, bool) {
	r.mu.Lock()
	st, ok := r.ovens[oven]
	r.mu.Unlock()
	if !ok {
		return 0, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.openRun == 0 {
		return 0, false
	}
	return st.openRun, true
}

// IsActive reports whether the oven currently has a run open.
func (r *Registry) IsActive(oven string) bool {
	_, ok := r.OpenRun(oven)
	return ok
}

// CurrentStatuses returns the last-known state of every known oven, for
// late-joining observers.
func (r *Registry) CurrentStatuses(ctx context.Context) ([]domain.OvenStatus, error) {
	return r.statuses.All(ctx)
}

// transition persists and broadcasts one state change. Called with the
// oven's state lock held so the persisted order matches the broadcast order.
func (r *Registry) transition(ctx context.Context, oven string, status domain.Status) error {
	update := domain.OvenStatus{
		OvenName:  oven,
		Status:    status,
		Timestamp: domain.FormatTimestamp(r.clock()),
	}
	if err := r.statuses.Upsert(ctx, update); err != nil {
		r.obs.LogError("status persist failed", err, ports.Field{Key: "oven", Value: oven})
		return err
	}
	r.bus.Broadcast(domain.Event{Type: domain.EventStatusUpdate, Data: update})
	r.obs.LogInfo("oven status changed",
		ports.Field{Key: "oven", Value: oven},
		ports.Field{Key: "status", Value: string(status)},
	)
	return nil
}
