// Package httpapi exposes the registry CRUD and history-query surface the
// dashboard and export tooling consume. Registry mutations are passed
// through the broadcaster so connected observers see device changes without
// polling.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/M-Kouli/Data-Collection-System/internal/adapters/observability"
	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// DeviceStore is the full registry surface: the core's read side plus the
// CRUD writes owned by this collaborator.
type DeviceStore interface {
	ports.DeviceRegistry
	CreateDevice(ctx context.Context, dev domain.Device) error
	UpdateDevice(ctx context.Context, dev domain.Device) error
	DeleteDevice(ctx context.Context, name string) error
}

// StatusSource provides the last-known state snapshot.
type StatusSource interface {
	CurrentStatuses(ctx context.Context) ([]domain.OvenStatus, error)
}

// API bundles the handlers and their collaborators.
type API struct {
	devices  DeviceStore
	events   ports.EventStore
	warnings ports.WarningStore
	statuses StatusSource
	bus      ports.Broadcaster
	obs      ports.Observability
}

// New wires the API handlers.
func New(devices DeviceStore, events ports.EventStore, warnings ports.WarningStore, statuses StatusSource, bus ports.Broadcaster, obs ports.Observability) *API {
	if obs == nil {
		obs = observability.Discard()
	}
	return &API{
		devices:  devices,
		events:   events,
		warnings: warnings,
		statuses: statuses,
		bus:      bus,
		obs:      obs,
	}
}

// Routes returns the router for mounting under the server root.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.health)

	r.Route("/ovens", func(r chi.Router) {
		r.Get("/", a.listOvens)
		r.Post("/", a.createOven)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", a.getOven)
			r.Put("/", a.updateOven)
			r.Delete("/", a.deleteOven)
			r.Put("/warnings", a.setWarnings)
			r.Get("/runs/latest", a.latestRun)
			r.Get("/runs/{runID}/samples", a.runSamples)
			r.Get("/samples", a.samplesInRange)
		})
	})

	r.Get("/statuses", a.listStatuses)

	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForErr maps store errors onto HTTP statuses.
func statusForErr(err error) int {
	if errors.Is(err, ports.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
