package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

func (a *API) listOvens(w http.ResponseWriter, r *http.Request) {
	ovens, err := a.devices.List(r.Context())
	if err != nil {
		a.obs.LogError("list ovens failed", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, ovens)
}

func (a *API) getOven(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	dev, err := a.devices.Get(r.Context(), name)
	if err != nil {
		writeError(w, statusForErr(err), "oven not found")
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (a *API) createOven(w http.ResponseWriter, r *http.Request) {
	var dev domain.Device
	if err := json.NewDecoder(r.Body).Decode(&dev); err != nil {
		writeError(w, http.StatusBadRequest, "malformed oven")
		return
	}
	if dev.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := a.devices.CreateDevice(r.Context(), dev); err != nil {
		a.obs.LogError("create oven failed", err, ports.Field{Key: "oven", Value: dev.Name})
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	a.bus.Broadcast(domain.Event{Type: domain.EventNewDevice, Data: dev})
	writeJSON(w, http.StatusCreated, dev)
}

func (a *API) updateOven(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var dev domain.Device
	if err := json.NewDecoder(r.Body).Decode(&dev); err != nil {
		writeError(w, http.StatusBadRequest, "malformed oven")
		return
	}
	dev.Name = name

	if err := a.devices.UpdateDevice(r.Context(), dev); err != nil {
		writeError(w, statusForErr(err), "update failed")
		return
	}
	a.bus.Broadcast(domain.Event{Type: domain.EventUpdateDevice, Data: dev})
	writeJSON(w, http.StatusOK, dev)
}

func (a *API) deleteOven(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := a.devices.DeleteDevice(r.Context(), name); err != nil {
		writeError(w, statusForErr(err), "delete failed")
		return
	}
	a.bus.Broadcast(domain.Event{Type: domain.EventDeleteDevice, Data: map[string]string{"name": name}})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) setWarnings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body struct {
		WarningsEnabled *bool `json:"warningsEnabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.WarningsEnabled == nil {
		writeError(w, http.StatusBadRequest, "warningsEnabled is required")
		return
	}
	if err := a.warnings.SetEnabled(r.Context(), name, *body.WarningsEnabled); err != nil {
		a.obs.LogError("set warnings failed", err, ports.Field{Key: "oven", Value: name})
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ovenName":        name,
		"warningsEnabled": *body.WarningsEnabled,
	})
}

func (a *API) listStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := a.statuses.CurrentStatuses(r.Context())
	if err != nil {
		a.obs.LogError("list statuses failed", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}
