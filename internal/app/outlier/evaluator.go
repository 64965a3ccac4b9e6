// Package outlier compares enriched samples against their attached control
// limits and raises rate-limited warnings through the broadcaster.
package outlier

import (
	"context"

	"github.com/M-Kouli/Data-Collection-System/internal/adapters/observability"
	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// ActivityChecker reports whether an oven currently has a run open.
// Implemented by session.Registry.
type ActivityChecker interface {
	IsActive(oven string) bool
}

// Evaluator walks a sample's readings and raises a warning for every value
// strictly outside its snapshot bounds. Outliers are only meaningful within
// a run: samples for a non-active oven are skipped entirely.
type Evaluator struct {
	warnings ports.WarningStore
	bus      ports.Broadcaster
	active   ActivityChecker
	obs      ports.Observability
}

// NewEvaluator wires an evaluator over the warning store and broadcaster.
func NewEvaluator(warnings ports.WarningStore, bus ports.Broadcaster, active ActivityChecker, obs ports.Observability) *Evaluator {
	if obs == nil {
		obs = observability.Discard()
	}
	return &Evaluator{warnings: warnings, bus: bus, active: active, obs: obs}
}

// Evaluate inspects one enriched sample. Oven-level records evaluate the
// temperature channel; board-level records evaluate each populated board
// channel. A channel whose snapshot is missing either bound is never
// evaluated: absence of configured limits means no opinion, not a pass or a
// fail.
func (e *Evaluator) Evaluate(ctx context.Context, s domain.Sample) {
	if !e.active.IsActive(s.OvenID) {
		return
	}

	switch s.Kind {
	case domain.KindOven:
		e.check(ctx, s, domain.ChannelTemperature)
	case domain.KindBoard:
		for _, c := range domain.BoardChannels() {
			e.check(ctx, s, c)
		}
	}
}

func (e *Evaluator) check(ctx context.Context, s domain.Sample, c domain.Channel) {
	r, ok := s.Reading(c)
	if !ok {
		return
	}
	if !r.Limits().Outside(r.Value) {
		return
	}
	e.raise(ctx, s.OvenID, domain.FailureType(c))
}

// raise records one failure and broadcasts a warning, unless warnings are
// disabled for the oven. The persisted tracker carries the cumulative count
// and the de-duplicated failure-type set.
func (e *Evaluator) raise(ctx context.Context, oven, failureType string) {
	settings, err := e.warnings.Settings(ctx, oven)
	if err != nil {
		e.obs.LogError("warning settings lookup failed", err, ports.Field{Key: "oven", Value: oven})
		return
	}
	if !settings.WarningsEnabled {
		return
	}

	settings.Tracker.Record(failureType)
	if err := e.warnings.Save(ctx, settings); err != nil {
		e.obs.LogError("failure tracker persist failed", err, ports.Field{Key: "oven", Value: oven})
		return
	}

	e.bus.Broadcast(domain.Event{Type: domain.EventWarning, Data: domain.Warning{
		OvenID:      oven,
		FailureType: failureType,
		Tracker:     settings.Tracker,
	}})
	e.obs.IncCounter(observability.MetricWarningsRaised, 1)
	e.obs.LogInfo("warning raised",
		ports.Field{Key: "oven", Value: oven},
		ports.Field{Key: "failureType", Value: failureType},
		ports.Field{Key: "count", Value: settings.Tracker.Count},
	)
}
