package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/M-Kouli/Data-Collection-System/internal/app/outlier"
	"github.com/M-Kouli/Data-Collection-System/internal/app/session"
	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// Full ingestion scenario: one oven with temperature limits [145, 255] runs a
// cycle with one overshoot. Every sample lands in the unscoped log and the run
// partition, one warning fires, and stopping resets the tracker so the next
// run starts clean.
func TestIngestRunScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.sessions.Identify(ctx, "Oven1"); err != nil {
		t.Fatalf("identify: %v", err)
	}
	runID, err := f.sessions.Activate(ctx, "Oven1")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if runID != 1 {
		t.Fatalf("run id = %d, want 1", runID)
	}
	f.bus.reset()

	for _, temp := range []float64{200, 260, 210} {
		if err := f.ingest.Ingest(ctx, rawOven("Oven1", temp)); err != nil {
			t.Fatalf("ingest %v: %v", temp, err)
		}
	}

	if got := len(f.store.unscoped["Oven1"]); got != 3 {
		t.Fatalf("unscoped samples = %d, want 3", got)
	}
	if got := len(f.store.runs["Oven1"][1]); got != 3 {
		t.Fatalf("run 1 samples = %d, want 3", got)
	}
	for _, s := range f.store.runs["Oven1"][1] {
		if s.RunID != 1 {
			t.Fatalf("run partition sample tagged %d, want 1", s.RunID)
		}
	}

	if got := f.bus.count(domain.EventNewOvenData); got != 3 {
		t.Fatalf("newOvenData broadcasts = %d, want 3", got)
	}
	if got := f.bus.count(domain.EventWarning); got != 1 {
		t.Fatalf("warning broadcasts = %d, want 1", got)
	}
	w := f.bus.first(domain.EventWarning).Data.(domain.Warning)
	if w.FailureType != "Temperature Out of Range" || w.Tracker.Count != 1 {
		t.Fatalf("unexpected warning: %+v", w)
	}

	if err := f.sessions.Stop(ctx, "Oven1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	ws, _ := f.warnings.Settings(ctx, "Oven1")
	if ws.Tracker.Count != 0 {
		t.Fatalf("tracker not reset after stop: %+v", ws.Tracker)
	}

	runID, err = f.sessions.Activate(ctx, "Oven1")
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if runID != 2 {
		t.Fatalf("second run id = %d, want 2", runID)
	}
}

func TestIngestWithoutOpenRunSkipsRunPartition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.sessions.Identify(ctx, "Oven1"); err != nil {
		t.Fatalf("identify: %v", err)
	}
	if err := f.ingest.Ingest(ctx, rawOven("Oven1", 500)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if got := len(f.store.unscoped["Oven1"]); got != 1 {
		t.Fatalf("unscoped samples = %d, want 1", got)
	}
	if len(f.store.runs["Oven1"]) != 0 {
		t.Fatal("idle sample leaked into a run partition")
	}
	// Outliers are only meaningful within a run.
	if got := f.bus.count(domain.EventWarning); got != 0 {
		t.Fatalf("warnings while idle = %d, want 0", got)
	}
}

// Board channels are independently optional: a board sample carrying only a
// subset of them is valid and flows through the whole pipeline.
func TestIngestSparseBoardSample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.sessions.Identify(ctx, "Oven1"); err != nil {
		t.Fatalf("identify: %v", err)
	}
	if _, err := f.sessions.Activate(ctx, "Oven1"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	f.bus.reset()

	raw := domain.RawSample{
		OvenID:  "Oven1",
		Kind:    domain.KindBoard,
		BoardID: "3",
		Values: map[domain.Channel]float64{
			domain.ChannelP2: 2.4,
			domain.ChannelT1: 205,
		},
	}
	if err := f.ingest.Ingest(ctx, raw); err != nil {
		t.Fatalf("ingest sparse board sample: %v", err)
	}

	if got := len(f.store.unscoped["Oven1"]); got != 1 {
		t.Fatalf("unscoped samples = %d, want 1", got)
	}
	s := f.store.unscoped["Oven1"][0]
	if s.Kind != domain.KindBoard || s.BoardID != "3" {
		t.Fatalf("persisted as kind=%s boardId=%q", s.Kind, s.BoardID)
	}
	if _, ok := s.Reading(domain.ChannelP1); ok {
		t.Fatal("absent channel p1 materialized a reading")
	}
	if r, ok := s.Reading(domain.ChannelP2); !ok || r.Value != 2.4 {
		t.Fatalf("p2 reading = %+v, present = %v", r, ok)
	}

	runSamples := f.store.runs["Oven1"][1]
	if len(runSamples) != 1 || runSamples[0].RunID != 1 {
		t.Fatalf("run partition = %+v, want one sample tagged run 1", runSamples)
	}
	if got := f.bus.count(domain.EventNewOvenData); got != 1 {
		t.Fatalf("newOvenData broadcasts = %d, want 1", got)
	}
}

func TestIngestValidationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		raw  domain.RawSample
	}{
		{"board without board id", domain.RawSample{
			OvenID: "Oven1", Kind: domain.KindBoard,
			Values: map[domain.Channel]float64{domain.ChannelP1: 1},
		}},
		{"oven without temperature", domain.RawSample{
			OvenID: "Oven1", Kind: domain.KindOven,
			Values: map[domain.Channel]float64{domain.ChannelP1: 1},
		}},
		{"unknown kind", domain.RawSample{
			OvenID: "Oven1", Kind: "Furnace",
			Values: map[domain.Channel]float64{domain.ChannelTemperature: 1},
		}},
		{"bad timestamp", domain.RawSample{
			OvenID: "Oven1", Kind: domain.KindOven, Timestamp: "yesterday",
			Values: map[domain.Channel]float64{domain.ChannelTemperature: 1},
		}},
	}
	for _, c := range cases {
		err := f.ingest.Ingest(ctx, c.raw)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: error = %v, want ErrValidation", c.name, err)
		}
	}
	if len(f.store.unscoped["Oven1"]) != 0 {
		t.Fatal("rejected sample was persisted")
	}
}

func TestIngestStoreFailureFallsBackToJournal(t *testing.T) {
	f := newFixture(t)
	f.store.appendErr = errors.New("disk full")
	ctx := context.Background()

	err := f.ingest.Ingest(ctx, rawOven("Oven1", 200))
	if err == nil {
		t.Fatal("expected error on store failure")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("store failure must not read as a validation error")
	}
	if len(f.journal.entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(f.journal.entries))
	}
	if got := f.bus.count(domain.EventNewOvenData); got != 0 {
		t.Fatal("failed sample was broadcast")
	}
}

func TestIngestServerTimestampFallback(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.ingest.SetClock(func() time.Time { return at })

	if err := f.ingest.Ingest(context.Background(), rawOven("Oven1", 200)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	s := f.store.unscoped["Oven1"][0]
	if s.Timestamp != domain.FormatTimestamp(at) {
		t.Fatalf("timestamp = %q, want server clock %q", s.Timestamp, domain.FormatTimestamp(at))
	}
}

func TestIngestAttachesLimitSnapshot(t *testing.T) {
	f := newFixture(t)

	if err := f.ingest.Ingest(context.Background(), rawOven("Oven1", 200)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	r, ok := f.store.unscoped["Oven1"][0].Reading(domain.ChannelTemperature)
	if !ok {
		t.Fatal("temperature reading missing")
	}
	if r.Lower == nil || r.Upper == nil || *r.Lower != 145 || *r.Upper != 255 {
		t.Fatalf("snapshot = %+v, want [145, 255]", r)
	}
}

func TestIngestUnregisteredOvenHasNoSnapshot(t *testing.T) {
	f := newFixture(t)

	if err := f.ingest.Ingest(context.Background(), rawOven("Ghost", 200)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	r, _ := f.store.unscoped["Ghost"][0].Reading(domain.ChannelTemperature)
	if r.Lower != nil || r.Upper != nil {
		t.Fatalf("unregistered oven carried a snapshot: %+v", r)
	}
}

type fixture struct {
	store    *fakeEventStore
	devices  *fakeRegistry
	warnings *fakeWarningStore
	journal  *fakeJournal
	bus      *fakeBus
	sessions *session.Registry
	ingest   *Ingestor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lower, upper := 145.0, 255.0
	f := &fixture{
		store: &fakeEventStore{
			unscoped: map[string][]domain.Sample{},
			runs:     map[string]map[int64][]domain.Sample{},
		},
		devices: &fakeRegistry{devices: map[string]domain.Device{
			"Oven1": {
				Name:     "Oven1",
				Category: "reflow",
				Limits: map[domain.Channel]domain.ControlLimits{
					domain.ChannelTemperature: {Lower: &lower, Upper: &upper},
				},
			},
		}},
		warnings: &fakeWarningStore{settings: map[string]domain.WarningSettings{}},
		journal:  &fakeJournal{},
		bus:      &fakeBus{},
	}
	f.sessions = session.NewRegistry(f.store, &fakeStatusStore{}, f.warnings, f.bus, nil)
	eval := outlier.NewEvaluator(f.warnings, f.bus, f.sessions, nil)
	f.ingest = NewIngestor(f.devices, f.store, f.sessions, eval, f.bus, f.journal, nil)
	return f
}

func rawOven(oven string, temp float64) domain.RawSample {
	return domain.RawSample{
		OvenID: oven,
		Kind:   domain.KindOven,
		Values: map[domain.Channel]float64{domain.ChannelTemperature: temp},
	}
}

type fakeEventStore struct {
	unscoped  map[string][]domain.Sample
	runs      map[string]map[int64][]domain.Sample
	appendErr error
}

func (s *fakeEventStore) Append(_ context.Context, smp domain.Sample) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.unscoped[smp.OvenID] = append(s.unscoped[smp.OvenID], smp)
	return nil
}

func (s *fakeEventStore) AppendToRun(_ context.Context, smp domain.Sample) error {
	if s.runs[smp.OvenID] == nil {
		s.runs[smp.OvenID] = map[int64][]domain.Sample{}
	}
	s.runs[smp.OvenID][smp.RunID] = append(s.runs[smp.OvenID][smp.RunID], smp)
	return nil
}

func (s *fakeEventStore) MaxRunID(_ context.Context, oven string) (int64, error) {
	var max int64
	for id := range s.runs[oven] {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (s *fakeEventStore) FindByRun(_ context.Context, oven string, runID int64) ([]domain.Sample, error) {
	return s.runs[oven][runID], nil
}

func (s *fakeEventStore) FindRange(context.Context, string, time.Time, time.Time) ([]domain.Sample, error) {
	return nil, nil
}

type fakeRegistry struct {
	devices map[string]domain.Device
}

func (r *fakeRegistry) Get(_ context.Context, name string) (domain.Device, error) {
	dev, ok := r.devices[name]
	if !ok {
		return domain.Device{}, ports.ErrNotFound
	}
	return dev, nil
}

func (r *fakeRegistry) List(context.Context) ([]domain.Device, error) { return nil, nil }

type fakeWarningStore struct {
	settings map[string]domain.WarningSettings
}

func (w *fakeWarningStore) Settings(_ context.Context, oven string) (domain.WarningSettings, error) {
	if ws, ok := w.settings[oven]; ok {
		return ws, nil
	}
	return domain.WarningSettings{OvenName: oven, WarningsEnabled: true}, nil
}

func (w *fakeWarningStore) Save(_ context.Context, ws domain.WarningSettings) error {
	w.settings[ws.OvenName] = ws
	return nil
}

func (w *fakeWarningStore) SetEnabled(_ context.Context, oven string, enabled bool) error {
	ws, _ := w.Settings(context.Background(), oven)
	ws.WarningsEnabled = enabled
	w.settings[oven] = ws
	return nil
}

func (w *fakeWarningStore) ResetTracker(_ context.Context, oven string) error {
	ws, _ := w.Settings(context.Background(), oven)
	ws.Tracker.Reset()
	w.settings[oven] = ws
	return nil
}

func (w *fakeWarningStore) Tracked(context.Context) ([]domain.WarningSettings, error) {
	return nil, nil
}

type fakeStatusStore struct{}

func (fakeStatusStore) Upsert(context.Context, domain.OvenStatus) error  { return nil }
func (fakeStatusStore) All(context.Context) ([]domain.OvenStatus, error) { return nil, nil }

type fakeJournal struct {
	entries []domain.Sample
}

func (j *fakeJournal) Append(s domain.Sample) (ports.JournalEntryID, error) {
	j.entries = append(j.entries, s)
	return ports.JournalEntryID(len(j.entries)), nil
}

func (j *fakeJournal) Replay(fn func(ports.JournalEntryID, domain.Sample) error) error {
	for i, s := range j.entries {
		if err := fn(ports.JournalEntryID(i+1), s); err != nil {
			return err
		}
	}
	return nil
}

func (j *fakeJournal) Truncate() error {
	j.entries = nil
	return nil
}

func (j *fakeJournal) Stats() ports.JournalStats {
	return ports.JournalStats{Entries: len(j.entries)}
}

type fakeBus struct {
	events []domain.Event
}

func (b *fakeBus) Broadcast(ev domain.Event) { b.events = append(b.events, ev) }

func (b *fakeBus) reset() { b.events = nil }

func (b *fakeBus) count(typ domain.EventType) int {
	n := 0
	for _, ev := range b.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func (b *fakeBus) first(typ domain.EventType) domain.Event {
	for _, ev := range b.events {
		if ev.Type == typ {
			return ev
		}
	}
	return domain.Event{}
}
