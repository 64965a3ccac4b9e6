package ports

import (
	"context"
	"time"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
)

// EventStore is the durable append-only log of measurement events. The
// unscoped per-oven log is the full history; the run-scoped partition is a
// fast-path index for "exactly this run's samples" queries. The core treats
// both as logical partitions, not a specific database layout.
type EventStore interface {
	// Append persists s to the oven's unscoped log.
	Append(ctx context.Context, s domain.Sample) error
	// AppendToRun persists a copy of s tagged with s.RunID into the
	// run-scoped partition. s.RunID must be > 0.
	AppendToRun(ctx context.Context, s domain.Sample) error
	// MaxRunID returns the highest run id persisted for oven, 0 when none.
	MaxRunID(ctx context.Context, oven string) (int64, error)
	// FindByRun returns run runID's samples in chronological order.
	FindByRun(ctx context.Context, oven string, runID int64) ([]domain.Sample, error)
	// FindRange returns the oven's unscoped samples within [from, to] in
	// chronological order.
	FindRange(ctx context.Context, oven string, from, to time.Time) ([]domain.Sample, error)
}
