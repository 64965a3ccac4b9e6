package outlier

import (
	"context"
	"testing"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
)

func TestEvaluateSkipsInactiveOvens(t *testing.T) {
	warnings := &mockWarningStore{enabled: true}
	bus := &mockBus{}
	e := NewEvaluator(warnings, bus, activeFn(func(string) bool { return false }), nil)

	e.Evaluate(context.Background(), ovenSample("Oven1", 500, 145, 255))

	if len(bus.events) != 0 {
		t.Fatalf("expected no warnings for inactive oven, got %d", len(bus.events))
	}
}

func TestEvaluateRaisesOnOutlier(t *testing.T) {
	warnings := &mockWarningStore{enabled: true}
	bus := &mockBus{}
	e := NewEvaluator(warnings, bus, alwaysActive{}, nil)

	e.Evaluate(context.Background(), ovenSample("Oven1", 260, 145, 255))

	if len(bus.events) != 1 {
		t.Fatalf("expected one warning event, got %d", len(bus.events))
	}
	w := bus.events[0].Data.(domain.Warning)
	if w.FailureType != "Temperature Out of Range" {
		t.Fatalf("failure type = %q", w.FailureType)
	}
	if w.Tracker.Count != 1 {
		t.Fatalf("tracker count = %d, want 1", w.Tracker.Count)
	}
	if warnings.saved == nil {
		t.Fatal("tracker was not persisted")
	}
}

func TestEvaluateCountsButDedupesLabels(t *testing.T) {
	warnings := &mockWarningStore{enabled: true}
	bus := &mockBus{}
	e := NewEvaluator(warnings, bus, alwaysActive{}, nil)

	ctx := context.Background()
	e.Evaluate(ctx, ovenSample("Oven1", 260, 145, 255))
	e.Evaluate(ctx, ovenSample("Oven1", 270, 145, 255))

	if warnings.saved.Tracker.Count != 2 {
		t.Fatalf("count = %d, want 2", warnings.saved.Tracker.Count)
	}
	if len(warnings.saved.Tracker.Failures) != 1 {
		t.Fatalf("failures = %v, want one de-duplicated label", warnings.saved.Tracker.Failures)
	}
	if len(bus.events) != 2 {
		t.Fatalf("expected a broadcast per outlier, got %d", len(bus.events))
	}
}

func TestEvaluateSuppressedWhenDisabled(t *testing.T) {
	warnings := &mockWarningStore{enabled: false}
	bus := &mockBus{}
	e := NewEvaluator(warnings, bus, alwaysActive{}, nil)

	e.Evaluate(context.Background(), ovenSample("Oven1", 500, 145, 255))

	if len(bus.events) != 0 {
		t.Fatal("warning raised while disabled")
	}
	if warnings.saved != nil {
		t.Fatal("tracker persisted while disabled")
	}
}

func TestEvaluateIgnoresUnconfiguredLimits(t *testing.T) {
	warnings := &mockWarningStore{enabled: true}
	bus := &mockBus{}
	e := NewEvaluator(warnings, bus, alwaysActive{}, nil)

	// No bounds at all.
	s := domain.Sample{
		OvenID: "Oven1",
		Kind:   domain.KindOven,
		Readings: map[domain.Channel]domain.Reading{
			domain.ChannelTemperature: {Value: 9999},
		},
	}
	e.Evaluate(context.Background(), s)

	// One-sided bounds.
	upper := 255.0
	s.Readings[domain.ChannelTemperature] = domain.Reading{Value: 9999, Upper: &upper}
	e.Evaluate(context.Background(), s)

	if len(bus.events) != 0 {
		t.Fatalf("expected no warnings without configured bounds, got %d", len(bus.events))
	}
}

func TestEvaluateBoardChannels(t *testing.T) {
	warnings := &mockWarningStore{enabled: true}
	bus := &mockBus{}
	e := NewEvaluator(warnings, bus, alwaysActive{}, nil)

	lower, upper := 0.0, 1.0
	s := domain.Sample{
		OvenID:  "Oven1",
		Kind:    domain.KindBoard,
		BoardID: "board-1",
		Readings: map[domain.Channel]domain.Reading{
			domain.ChannelP1: {Value: 2.5, Lower: &lower, Upper: &upper},
			domain.ChannelT1: {Value: 0.5, Lower: &lower, Upper: &upper},
			domain.ChannelVx: {Value: -1, Lower: &lower, Upper: &upper},
		},
	}
	e.Evaluate(context.Background(), s)

	if len(bus.events) != 2 {
		t.Fatalf("expected warnings for p1 and vx only, got %d", len(bus.events))
	}
	got := map[string]bool{}
	for _, ev := range bus.events {
		got[ev.Data.(domain.Warning).FailureType] = true
	}
	if !got["p1 Out of Range"] || !got["vx Out of Range"] {
		t.Fatalf("unexpected failure types: %v", got)
	}
}

func ovenSample(oven string, value, lower, upper float64) domain.Sample {
	return domain.Sample{
		OvenID: oven,
		Kind:   domain.KindOven,
		Readings: map[domain.Channel]domain.Reading{
			domain.ChannelTemperature: {Value: value, Lower: &lower, Upper: &upper},
		},
	}
}

type alwaysActive struct{}

func (alwaysActive) IsActive(string) bool { return true }

type activeFn func(string) bool

func (f activeFn) IsActive(oven string) bool { return f(oven) }

type mockWarningStore struct {
	enabled bool
	saved   *domain.WarningSettings
}

func (m *mockWarningStore) Settings(_ context.Context, oven string) (domain.WarningSettings, error) {
	if m.saved != nil {
		return *m.saved, nil
	}
	return domain.WarningSettings{OvenName: oven, WarningsEnabled: m.enabled}, nil
}

func (m *mockWarningStore) Save(_ context.Context, ws domain.WarningSettings) error {
	m.saved = &ws
	return nil
}
func (m *mockWarningStore) SetEnabled(context.Context, string, bool) error { return nil }
func (m *mockWarningStore) ResetTracker(context.Context, string) error     { return nil }
func (m *mockWarningStore) Tracked(context.Context) ([]domain.WarningSettings, error) {
	return nil, nil
}

type mockBus struct {
	events []domain.Event
}

func (m *mockBus) Broadcast(ev domain.Event) { m.events = append(m.events, ev) }
