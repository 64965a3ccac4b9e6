// Package pipeline implements the ingestion path: validate, timestamp,
// enrich with control-limit snapshots, persist, evaluate, broadcast. One bad
// sample never blocks the stream; the worst outcome for a sample is that it
// is journalled or dropped with a logged reason.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/M-Kouli/Data-Collection-System/internal/adapters/observability"
	"github.com/M-Kouli/Data-Collection-System/internal/app/outlier"
	"github.com/M-Kouli/Data-Collection-System/internal/app/session"
	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// ErrValidation wraps sample rejections so transports can distinguish a bad
// sample (report to the producer, keep the connection) from an internal
// failure (log and continue).
var ErrValidation = errors.New("invalid sample")

// Ingestor orchestrates the per-sample ingestion steps. Callers must deliver
// one device's samples in arrival order; run attribution and failure-counter
// increments are order-sensitive. The websocket transport guarantees this by
// reading each device connection on a single goroutine.
type Ingestor struct {
	devices  ports.DeviceRegistry
	store    ports.EventStore
	sessions *session.Registry
	eval     *outlier.Evaluator
	bus      ports.Broadcaster
	journal  ports.Journal // optional fallback for failed appends
	obs      ports.Observability
	clock    func() time.Time
}

// NewIngestor wires the ingestion pipeline. journal may be nil, in which
// case samples rejected by the event store are dropped after logging.
func NewIngestor(
	devices ports.DeviceRegistry,
	store ports.EventStore,
	sessions *session.Registry,
	eval *outlier.Evaluator,
	bus ports.Broadcaster,
	journal ports.Journal,
	obs ports.Observability,
) *Ingestor {
	if obs == nil {
		obs = observability.Discard()
	}
	return &Ingestor{
		devices:  devices,
		store:    store,
		sessions: sessions,
		eval:     eval,
		bus:      bus,
		journal:  journal,
		obs:      obs,
		clock:    time.Now,
	}
}

// SetClock overrides the server timestamp source. Test hook.
func (p *Ingestor) SetClock(clock func() time.Time) { p.clock = clock }

// Ingest processes one raw sample end to end. A returned error wrapping
// ErrValidation means the sample was rejected before persistence and should
// be reported to the producer; any other error means processing was aborted
// after validation and has already been logged.
func (p *Ingestor) Ingest(ctx context.Context, raw domain.RawSample) error {
	start := p.clock()

	sample, err := p.enrich(ctx, raw)
	if err != nil {
		p.obs.IncCounter(observability.MetricSamplesRejected, 1)
		p.obs.LogError("sample rejected", err, ports.Field{Key: "oven", Value: raw.OvenID})
		return err
	}

	if err := p.store.Append(ctx, sample); err != nil {
		p.obs.IncCounter(observability.MetricStoreFailures, 1)
		p.obs.LogError("event store append failed", err, ports.Field{Key: "oven", Value: sample.OvenID})
		p.journalFallback(sample)
		return fmt.Errorf("append %s sample for %q: %w", sample.Kind, sample.OvenID, err)
	}

	if runID, open := p.sessions.OpenRun(sample.OvenID); open {
		runCopy := sample
		runCopy.RunID = runID
		if err := p.store.AppendToRun(ctx, runCopy); err != nil {
			// The sample is durable in the unscoped log; losing the run-index
			// copy degrades run queries but must not stop the stream.
			p.obs.IncCounter(observability.MetricStoreFailures, 1)
			p.obs.LogError("run partition append failed", err,
				ports.Field{Key: "oven", Value: sample.OvenID},
				ports.Field{Key: "run", Value: runID},
			)
		} else {
			sample = runCopy
		}
	}

	p.eval.Evaluate(ctx, sample)
	p.bus.Broadcast(domain.Event{Type: domain.EventNewOvenData, Data: sample})

	p.obs.IncCounter(observability.MetricSamplesIngested, 1)
	p.obs.ObserveLatency(observability.MetricIngestLatency, p.clock().Sub(start).Seconds())
	return nil
}

// enrich validates the raw sample, resolves its timestamp, and attaches the
// control-limit snapshot currently configured for each populated channel.
func (p *Ingestor) enrich(ctx context.Context, raw domain.RawSample) (domain.Sample, error) {
	ts, err := p.resolveTimestamp(raw.Timestamp)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	limits := p.limitsFor(ctx, raw.OvenID)
	readings := make(map[domain.Channel]domain.Reading, len(raw.Values))
	for c, v := range raw.Values {
		l := limits[c]
		readings[c] = domain.Reading{Value: v, Upper: l.Upper, Lower: l.Lower}
	}

	var sample domain.Sample
	switch raw.Kind {
	case domain.KindOven:
		sample, err = domain.NewOvenSample(raw.OvenID, ts, readings)
	case domain.KindBoard:
		sample, err = domain.NewBoardSample(raw.OvenID, raw.BoardID, ts, readings)
	default:
		err = fmt.Errorf("%w %q", domain.ErrUnknownKind, raw.Kind)
	}
	if err != nil {
		return domain.Sample{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return sample, nil
}

// resolveTimestamp prefers the client-supplied value and falls back to the
// server clock. Either way the result is the fixed-width sortable form.
func (p *Ingestor) resolveTimestamp(clientTS string) (string, error) {
	if clientTS == "" {
		return domain.FormatTimestamp(p.clock()), nil
	}
	t, err := domain.ParseTimestamp(clientTS)
	if err != nil {
		return "", fmt.Errorf("timestamp %q: %w", clientTS, err)
	}
	return domain.FormatTimestamp(t), nil
}

// limitsFor fetches the oven's current limit configuration. An unregistered
// oven is not an error: its samples carry no snapshot and are never
// evaluated, matching the no-limits-configured policy.
func (p *Ingestor) limitsFor(ctx context.Context, oven string) map[domain.Channel]domain.ControlLimits {
	dev, err := p.devices.Get(ctx, oven)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			p.obs.LogError("device registry lookup failed", err, ports.Field{Key: "oven", Value: oven})
		}
		return nil
	}
	return dev.Limits
}

func (p *Ingestor) journalFallback(sample domain.Sample) {
	if p.journal == nil {
		return
	}
	if _, err := p.journal.Append(sample); err != nil {
		p.obs.LogCritical("journal append failed, sample lost", err,
			ports.Field{Key: "oven", Value: sample.OvenID})
		return
	}
	p.obs.SetGauge(observability.MetricJournalEntries, float64(p.journal.Stats().Entries))
}
