package dcs

import (
	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// Sample is an enriched telemetry record as stored and broadcast.
type Sample = domain.Sample

// RawSample is a sample as received from a device, before enrichment.
type RawSample = domain.RawSample

// Reading is one channel value with the control limits in force at ingestion.
type Reading = domain.Reading

// ControlLimits are the optional upper/lower bounds for one channel.
type ControlLimits = domain.ControlLimits

// Channel names a telemetry series.
type Channel = domain.Channel

// Device describes a registered oven and its control limits.
type Device = domain.Device

// OvenStatus is the last-known lifecycle state of one oven.
type OvenStatus = domain.OvenStatus

// Status is an oven's lifecycle state.
type Status = domain.Status

// WarningSettings holds the per-oven warnings flag and failure tracker.
type WarningSettings = domain.WarningSettings

// Warning is a raised control-limit violation.
type Warning = domain.Warning

// Event is one broadcast frame pushed to observers.
type Event = domain.Event

// EventType discriminates broadcast frames.
type EventType = domain.EventType

// Collector streams raw samples from an external source (OPC UA, simulators)
// into the ingestion pipeline.
type Collector = ports.Collector

// EventStore persists samples and run partitions.
type EventStore = ports.EventStore

// DeviceRegistry is the read side of the oven registry.
type DeviceRegistry = ports.DeviceRegistry

// StatusStore persists last-known oven statuses.
type StatusStore = ports.StatusStore

// WarningStore persists warning settings and trackers.
type WarningStore = ports.WarningStore

// Journal is the durable fallback for samples the event store rejected.
type Journal = ports.Journal

// Broadcaster pushes events to connected observers.
type Broadcaster = ports.Broadcaster

// Observability emits logs and metrics for the pipeline.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field
