// Package dcs exposes the data collection system as an embeddable runtime.
// The default wiring serves websocket ingestion, observer fan-out, and the
// oven REST API from one listener, persists through GORM, and publishes
// Prometheus metrics on a second listener. Options swap any dependency.
package dcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/M-Kouli/Data-Collection-System/internal/adapters/gormstore"
	"github.com/M-Kouli/Data-Collection-System/internal/adapters/httpapi"
	"github.com/M-Kouli/Data-Collection-System/internal/adapters/journal"
	"github.com/M-Kouli/Data-Collection-System/internal/adapters/observability"
	"github.com/M-Kouli/Data-Collection-System/internal/adapters/opcua"
	"github.com/M-Kouli/Data-Collection-System/internal/adapters/wshub"
	"github.com/M-Kouli/Data-Collection-System/internal/app/outlier"
	"github.com/M-Kouli/Data-Collection-System/internal/app/pipeline"
	"github.com/M-Kouli/Data-Collection-System/internal/app/session"
	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// DeviceStore is the full oven registry surface: reads for the ingestion
// core plus the CRUD writes served over REST.
type DeviceStore = httpapi.DeviceStore

// Option customizes the dependencies used by Runtime.
type Option func(*overrides)

type overrides struct {
	deviceStore   DeviceStore
	events        ports.EventStore
	statuses      ports.StatusStore
	warnings      ports.WarningStore
	journal       ports.Journal
	collector     ports.Collector
	observability ports.Observability
	logger        *slog.Logger
}

// WithDeviceStore injects a custom oven registry (reads + CRUD writes).
func WithDeviceStore(ds DeviceStore) Option {
	return func(o *overrides) { o.deviceStore = ds }
}

// WithEventStore injects a custom sample store.
func WithEventStore(es ports.EventStore) Option {
	return func(o *overrides) { o.events = es }
}

// WithStatusStore injects a custom status store.
func WithStatusStore(ss ports.StatusStore) Option {
	return func(o *overrides) { o.statuses = ss }
}

// WithWarningStore injects a custom warning settings store.
func WithWarningStore(ws ports.WarningStore) Option {
	return func(o *overrides) { o.warnings = ws }
}

// WithJournal lets callers bring their own fallback journal, or disable it
// by passing nil explicitly set through this option.
func WithJournal(j ports.Journal) Option {
	return func(o *overrides) { o.journal = j }
}

// WithCollector attaches an extra sample source alongside the websocket
// transport (OPC UA, Modbus, simulators, etc.).
func WithCollector(c ports.Collector) Option {
	return func(o *overrides) { o.collector = c }
}

// WithObservability plugs in a custom telemetry backend.
func WithObservability(obs ports.Observability) Option {
	return func(o *overrides) { o.observability = obs }
}

// WithLogger sets the slog logger used by the default observability backend.
func WithLogger(l *slog.Logger) Option {
	return func(o *overrides) { o.logger = l }
}

// broadcastRelay breaks the construction cycle between the core services
// and the websocket hub. Events published before bind are dropped.
type broadcastRelay struct {
	mu     sync.RWMutex
	target ports.Broadcaster
}

func (b *broadcastRelay) Broadcast(ev domain.Event) {
	b.mu.RLock()
	t := b.target
	b.mu.RUnlock()
	if t != nil {
		t.Broadcast(ev)
	}
}

func (b *broadcastRelay) bind(t ports.Broadcaster) {
	b.mu.Lock()
	b.target = t
	b.mu.Unlock()
}

// Runtime owns the full server: stores, session registry, ingestion
// pipeline, websocket hub, REST API, and the two HTTP listeners.
type Runtime struct {
	cfg *Config
	obs ports.Observability

	store     *gormstore.Store
	events    ports.EventStore
	journal   ports.Journal
	collector ports.Collector

	sessions *session.Registry
	ingest   *pipeline.Ingestor
	hub      *wshub.Hub
	api      *httpapi.API

	mainSrv    *http.Server
	metricsSrv *http.Server

	collectCh     chan domain.RawSample
	collectCancel context.CancelFunc
	listeners     errgroup.Group
	wg            sync.WaitGroup
}

// NewRuntime bootstraps the default adapters (GORM store, file journal,
// websocket hub, Prometheus observability) and wires the pipeline. Options
// override any dependency.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var ov overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&ov)
		}
	}

	obs := ov.observability
	if obs == nil {
		logger := ov.logger
		if logger == nil {
			logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
		}
		obs = observability.New(logger)
	}

	var (
		store *gormstore.Store
		err   error
	)
	needStore := ov.deviceStore == nil || ov.events == nil ||
		ov.statuses == nil || ov.warnings == nil
	if needStore {
		store, err = gormstore.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
	}

	devices := ov.deviceStore
	if devices == nil {
		devices = store
	}
	events := ov.events
	if events == nil {
		events = store
	}
	statuses := ov.statuses
	if statuses == nil {
		statuses = store
	}
	warnings := ov.warnings
	if warnings == nil {
		warnings = store
	}

	jrnl := ov.journal
	if jrnl == nil {
		jrnl, err = journal.Open(cfg.Journal.Dir)
		if err != nil {
			if store != nil {
				_ = store.Close()
			}
			return nil, fmt.Errorf("open journal: %w", err)
		}
	}

	relay := &broadcastRelay{}
	sessions := session.NewRegistry(events, statuses, warnings, relay, obs)
	eval := outlier.NewEvaluator(warnings, relay, sessions, obs)
	ingest := pipeline.NewIngestor(devices, events, sessions, eval, relay, jrnl, obs)

	hub := wshub.New(sessions, ingest, warnings, obs, cfg.Broadcast.ObserverBuffer)
	relay.bind(hub)

	api := httpapi.New(devices, events, warnings, sessions, relay, obs)

	col := ov.collector
	if col == nil && cfg.OPCUA != nil {
		col, err = opcua.NewCollector(*cfg.OPCUA, ov.logger)
		if err != nil {
			hub.Close()
			if store != nil {
				_ = store.Close()
			}
			return nil, fmt.Errorf("opcua collector: %w", err)
		}
	}

	rt := &Runtime{
		cfg:       cfg,
		obs:       obs,
		store:     store,
		events:    events,
		journal:   jrnl,
		collector: col,
		sessions:  sessions,
		ingest:    ingest,
		hub:       hub,
		api:       api,
	}
	rt.buildServers()
	return rt, nil
}

// Ingestor exposes the ingestion pipeline for embedded producers that feed
// samples directly instead of over a websocket.
func (rt *Runtime) Ingestor() *pipeline.Ingestor { return rt.ingest }

// Hub exposes the websocket hub, mainly for mounting its handlers on an
// existing router.
func (rt *Runtime) Hub() *wshub.Hub { return rt.hub }

func (rt *Runtime) buildServers() {
	mux := http.NewServeMux()
	mux.HandleFunc(rt.cfg.Server.IngestPath, rt.hub.ServeDevice)
	mux.HandleFunc(rt.cfg.Server.ObservePath, rt.hub.ServeObserver)
	mux.Handle("/", rt.api.Routes())
	rt.mainSrv = &http.Server{
		Addr:              rt.cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.metricsSrv = &http.Server{
		Addr:    rt.cfg.Metrics.Addr,
		Handler: metricsMux,
	}
}

// Start replays the journal, starts both listeners, and launches the
// optional collector. It returns immediately; call Run to block instead.
func (rt *Runtime) Start(ctx context.Context) error {
	if rt == nil {
		return fmt.Errorf("runtime is nil")
	}

	if rt.journal != nil {
		if err := pipeline.ReplayJournal(ctx, rt.journal, rt.events, rt.obs); err != nil {
			return fmt.Errorf("journal replay: %w", err)
		}
	}

	rt.listeners.Go(func() error {
		if err := rt.mainSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.obs.LogCritical("server_exited", err,
				ports.Field{Key: "addr", Value: rt.cfg.Server.Addr})
			return err
		}
		return nil
	})

	rt.listeners.Go(func() error {
		if err := rt.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.obs.LogError("metrics_server_exited", err,
				ports.Field{Key: "addr", Value: rt.cfg.Metrics.Addr})
			return err
		}
		return nil
	})

	if rt.collector != nil {
		collectCtx, cancel := context.WithCancel(context.Background())
		rt.collectCancel = cancel
		rt.collectCh = make(chan domain.RawSample, 64)
		if err := rt.collector.Start(rt.collectCh); err != nil {
			cancel()
			return fmt.Errorf("start collector: %w", err)
		}
		rt.wg.Add(1)
		go rt.consumeCollector(collectCtx)
	}

	rt.obs.LogInfo("runtime_started",
		ports.Field{Key: "addr", Value: rt.cfg.Server.Addr},
		ports.Field{Key: "metrics_addr", Value: rt.cfg.Metrics.Addr})
	return nil
}

// Run starts the runtime and blocks until ctx is cancelled, then shuts
// down gracefully.
func (rt *Runtime) Run(ctx context.Context) error {
	if err := rt.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return rt.Shutdown(shutdownCtx)
}

// Shutdown stops the collector, both listeners, the hub, and closes the
// journal and database.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if rt.collector != nil {
		if err := rt.collector.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.collectCancel != nil {
		rt.collectCancel()
	}

	if err := rt.mainSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, err)
	}
	if err := rt.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, err)
	}

	rt.hub.Close()
	if err := rt.listeners.Wait(); err != nil {
		errs = append(errs, err)
	}
	rt.wg.Wait()

	if c, ok := rt.journal.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (rt *Runtime) consumeCollector(ctx context.Context) {
	defer rt.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-rt.collectCh:
			if err := rt.ingest.Ingest(ctx, raw); err != nil {
				rt.obs.LogError("collector_sample_rejected", err,
					ports.Field{Key: "oven", Value: raw.OvenID})
			}
		}
	}
}
