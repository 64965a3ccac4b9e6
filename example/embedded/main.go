// Command embedded shows how to run the server inside another Go process
// with a programmatic config instead of a YAML file.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	dcs "github.com/M-Kouli/Data-Collection-System"
)

func main() {
	cfg := &dcs.Config{
		Server: dcs.ServerConfig{
			Addr:        ":5000",
			IngestPath:  "/ws/ingest",
			ObservePath: "/ws/observe",
		},
		Database: dcs.DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file::memory:?cache=shared",
		},
		Metrics:   dcs.MetricsConfig{Addr: ":9100"},
		Journal:   dcs.JournalConfig{Dir: "./data/journal"},
		Broadcast: dcs.BroadcastConfig{ObserverBuffer: 256},
	}

	flow, err := dcs.ConfFromConfig(cfg)
	if err != nil {
		log.Fatalf("configure: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := flow.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("server exited: %v", err)
	}
}
