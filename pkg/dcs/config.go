package dcs

import (
	"github.com/M-Kouli/Data-Collection-System/internal/adapters/opcua"
	"github.com/M-Kouli/Data-Collection-System/internal/app/config"
)

// Config re-exports the root configuration struct so embedding projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// ServerConfig configures the websocket + REST listener.
	ServerConfig = config.ServerConfig
	// DatabaseConfig selects the GORM driver and DSN.
	DatabaseConfig = config.DatabaseConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// JournalConfig configures the on-disk fallback journal.
	JournalConfig = config.JournalConfig
	// BroadcastConfig sizes the per-observer send buffers.
	BroadcastConfig = config.BroadcastConfig
	// OPCUAConfig holds connection + node details for the optional collector.
	OPCUAConfig = opcua.Config
	// OPCUANodeConfig maps one monitored tag onto an oven channel.
	OPCUANodeConfig = opcua.NodeConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
