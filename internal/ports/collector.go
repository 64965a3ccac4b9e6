package ports

import "github.com/M-Kouli/Data-Collection-System/internal/domain"

// Collector is an optional in-process sample source (PLC polling, serial
// bridges, simulators) feeding the same ingestion path as the websocket
// transport.
type Collector interface {
	Start(out chan<- domain.RawSample) error
	Stop() error
}
