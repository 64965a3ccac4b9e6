package ports

import (
	"context"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
)

// StatusStore persists the last-known lifecycle state per oven so the
// currentStatuses read survives a process restart.
type StatusStore interface {
	Upsert(ctx context.Context, st domain.OvenStatus) error
	All(ctx context.Context) ([]domain.OvenStatus, error)
}

// WarningStore persists per-oven warning settings and failure trackers.
// An oven with no stored settings defaults to warnings enabled and a zero
// tracker.
type WarningStore interface {
	Settings(ctx context.Context, oven string) (domain.WarningSettings, error)
	Save(ctx context.Context, ws domain.WarningSettings) error
	// SetEnabled flips the warnings-enabled flag without touching the tracker.
	SetEnabled(ctx context.Context, oven string, enabled bool) error
	// ResetTracker zeroes the oven's tracker, creating settings if absent.
	ResetTracker(ctx context.Context, oven string) error
	// Tracked returns every settings row with a non-zero tracker.
	Tracked(ctx context.Context) ([]domain.WarningSettings, error)
}
