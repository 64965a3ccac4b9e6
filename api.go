// Package dcs lets consumers import the module root directly instead of
// pkg/dcs.
package dcs

import (
	base "github.com/M-Kouli/Data-Collection-System/pkg/dcs"
)

// Type aliases so consumers can import the module path directly.
type (
	Config          = base.Config
	ServerConfig    = base.ServerConfig
	DatabaseConfig  = base.DatabaseConfig
	MetricsConfig   = base.MetricsConfig
	JournalConfig   = base.JournalConfig
	BroadcastConfig = base.BroadcastConfig
	OPCUAConfig     = base.OPCUAConfig
	OPCUANodeConfig = base.OPCUANodeConfig
	Flow            = base.Flow
	Runtime         = base.Runtime
	Option          = base.Option
	Sample          = base.Sample
	RawSample       = base.RawSample
	Reading         = base.Reading
	ControlLimits   = base.ControlLimits
	Channel         = base.Channel
	Device          = base.Device
	OvenStatus      = base.OvenStatus
	Status          = base.Status
	WarningSettings = base.WarningSettings
	Warning         = base.Warning
	Event           = base.Event
	EventType       = base.EventType
	Collector       = base.Collector
	EventStore      = base.EventStore
	DeviceRegistry  = base.DeviceRegistry
	DeviceStore     = base.DeviceStore
	StatusStore     = base.StatusStore
	WarningStore    = base.WarningStore
	Journal         = base.Journal
	Broadcaster     = base.Broadcaster
	Observability   = base.Observability
	Field           = base.Field
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Flow builder helpers.
func Conf(path string) (*Flow, error) {
	return base.Conf(path)
}

func ConfFromConfig(cfg *Config) (*Flow, error) {
	return base.ConfFromConfig(cfg)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithDeviceStore(ds DeviceStore) Option {
	return base.WithDeviceStore(ds)
}

func WithEventStore(es EventStore) Option {
	return base.WithEventStore(es)
}

func WithStatusStore(ss StatusStore) Option {
	return base.WithStatusStore(ss)
}

func WithWarningStore(ws WarningStore) Option {
	return base.WithWarningStore(ws)
}

func WithJournal(j Journal) Option {
	return base.WithJournal(j)
}

func WithCollector(c Collector) Option {
	return base.WithCollector(c)
}

func WithObservability(obs Observability) Option {
	return base.WithObservability(obs)
}
