// Package observability implements ports.Observability on slog and
// Prometheus. Components record into named counters, gauges, and histograms;
// names unknown to the adapter are silently ignored so callers never need to
// guard metric calls.
package observability

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// Metric names recorded by the core components.
const (
	MetricSamplesIngested  = "oven_samples_ingested_total"
	MetricSamplesRejected  = "oven_samples_rejected_total"
	MetricStoreFailures    = "oven_store_failures_total"
	MetricWarningsRaised   = "oven_warnings_raised_total"
	MetricBroadcastDropped = "oven_broadcast_dropped_total"
	MetricObserversGauge   = "oven_observers_connected"
	MetricDevicesGauge     = "oven_devices_connected"
	MetricJournalEntries   = "oven_journal_entries"
	MetricIngestLatency    = "oven_ingest_latency_seconds"
	MetricBroadcastLatency = "oven_broadcast_latency_seconds"
)

// PromObs is the default Observability backend: structured logs via slog,
// metrics via the Prometheus default registry.
type PromObs struct {
	log      *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// New registers the core metric set and returns a PromObs logging through
// logger. Call once per process; duplicate registration panics.
func New(logger *slog.Logger) *PromObs {
	if logger == nil {
		logger = slog.Default()
	}

	ingested := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricSamplesIngested,
		Help: "Samples validated, persisted, and broadcast.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricSamplesRejected,
		Help: "Samples rejected by validation.",
	})
	storeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricStoreFailures,
		Help: "Event store appends that failed and were journalled.",
	})
	warnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricWarningsRaised,
		Help: "Control-limit warnings raised and broadcast.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricBroadcastDropped,
		Help: "Frames dropped because an observer's buffer was full.",
	})
	observers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricObserversGauge,
		Help: "Currently connected observer clients.",
	})
	devices := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricDevicesGauge,
		Help: "Currently connected device clients.",
	})
	journalEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricJournalEntries,
		Help: "Samples waiting in the fallback journal.",
	})
	ingestLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricIngestLatency,
		Help:    "Latency from raw sample arrival to broadcast.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	broadcastLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricBroadcastLatency,
		Help:    "Time to enqueue one event to all observers.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10),
	})

	prometheus.MustRegister(
		ingested, rejected, storeFailures, warnings, dropped,
		observers, devices, journalEntries, ingestLatency, broadcastLatency,
	)

	return &PromObs{
		log: logger,
		counters: map[string]prometheus.Counter{
			MetricSamplesIngested:  ingested,
			MetricSamplesRejected:  rejected,
			MetricStoreFailures:    storeFailures,
			MetricWarningsRaised:   warnings,
			MetricBroadcastDropped: dropped,
		},
		gauges: map[string]prometheus.Gauge{
			MetricObserversGauge: observers,
			MetricDevicesGauge:   devices,
			MetricJournalEntries: journalEntries,
		},
		histos: map[string]prometheus.Observer{
			MetricIngestLatency:    ingestLatency,
			MetricBroadcastLatency: broadcastLatency,
		},
	}
}

// Discard returns an Observability backend that records nothing. Intended
// for tests and embedded callers that bring their own telemetry.
func Discard() ports.Observability {
	return &PromObs{log: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(attrs(fields), slog.Any("error", err))...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(attrs(fields), slog.Any("error", err), slog.Bool("critical", true))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
