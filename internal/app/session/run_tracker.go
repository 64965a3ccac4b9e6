package session

import (
	"context"
	"fmt"

	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// RunTracker allocates per-oven run identifiers. Run ids are dense and
// strictly increasing starting at 1, recovered from durable storage so a
// process restart mid-run continues the sequence rather than restarting it.
type RunTracker struct {
	store ports.EventStore
}

// NewRunTracker returns a tracker backed by store.
func NewRunTracker(store ports.EventStore) *RunTracker {
	return &RunTracker{store: store}
}

// NextRunID returns the next run id for oven: the highest persisted run id
// plus one. Callers must serialize concurrent calls for the same oven; the
// Registry does so via its per-oven lock. An absent or invalid stored
// maximum counts as 0, so the first run is 1.
func (t *RunTracker) NextRunID(ctx context.Context, oven string) (int64, error) {
	last, err := t.store.MaxRunID(ctx, oven)
	if err != nil {
		return 0, fmt.Errorf("max run id for %q: %w", oven, err)
	}
	if last < 0 {
		last = 0
	}
	return last + 1, nil
}
