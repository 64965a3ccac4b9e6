package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// latestRun reports the highest run id persisted for the oven; 0 when the
// oven has never run.
func (a *API) latestRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	runID, err := a.events.MaxRunID(r.Context(), name)
	if err != nil {
		a.obs.LogError("latest run lookup failed", err, ports.Field{Key: "oven", Value: name})
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ovenId": name, "runId": runID})
}

// runSamples returns exactly one run's samples in chronological order, the
// fast path used by diagnostics and export.
func (a *API) runSamples(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	runID, err := strconv.ParseInt(chi.URLParam(r, "runID"), 10, 64)
	if err != nil || runID < 1 {
		writeError(w, http.StatusBadRequest, "runID must be a positive integer")
		return
	}

	samples, err := a.events.FindByRun(r.Context(), name, runID)
	if err != nil {
		a.obs.LogError("run query failed", err, ports.Field{Key: "oven", Value: name})
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, samples)
}

// samplesInRange returns the oven's unscoped samples between from and to
// (RFC3339, inclusive).
func (a *API) samplesInRange(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	from, err := domain.ParseTimestamp(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be RFC3339")
		return
	}
	to, err := domain.ParseTimestamp(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be RFC3339")
		return
	}

	samples, err := a.events.FindRange(r.Context(), name, from, to)
	if err != nil {
		a.obs.LogError("range query failed", err, ports.Field{Key: "oven", Value: name})
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, samples)
}
