package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/M-Kouli/Data-Collection-System/internal/adapters/opcua"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Journal   JournalConfig   `yaml:"journal"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	OPCUA     *opcua.Config   `yaml:"opcua"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	IngestPath  string `yaml:"ingest_path"`
	ObservePath string `yaml:"observe_path"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type JournalConfig struct {
	Dir string `yaml:"dir"`
}

type BroadcastConfig struct {
	ObserverBuffer int `yaml:"observer_buffer"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.IngestPath == "" {
		c.Server.IngestPath = "/ws/ingest"
	}
	if c.Server.ObservePath == "" {
		c.Server.ObservePath = "/ws/observe"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "./data/dcs.db"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "./data/journal"
	}
	if c.Broadcast.ObserverBuffer <= 0 {
		c.Broadcast.ObserverBuffer = 256
	}

	if c.OPCUA != nil {
		c.OPCUA.ApplyDefaults()
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	if c.Journal.Dir == "" {
		return fmt.Errorf("journal.dir is required")
	}
	if c.OPCUA != nil {
		if err := c.OPCUA.Validate(); err != nil {
			return fmt.Errorf("opcua config: %w", err)
		}
	}
	return nil
}
