package pipeline

import (
	"context"
	"fmt"

	"github.com/M-Kouli/Data-Collection-System/internal/adapters/observability"
	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// ReplayJournal drains journalled samples back into the event store and
// truncates the journal on success. Run at startup, before the transports
// accept traffic, so recovered samples precede new ones in the log.
func ReplayJournal(ctx context.Context, j ports.Journal, store ports.EventStore, obs ports.Observability) error {
	if j == nil {
		return nil
	}
	if obs == nil {
		obs = observability.Discard()
	}

	recovered := 0
	err := j.Replay(func(id ports.JournalEntryID, s domain.Sample) error {
		if err := store.Append(ctx, s); err != nil {
			return fmt.Errorf("replay entry %d: %w", id, err)
		}
		if s.RunID > 0 {
			if err := store.AppendToRun(ctx, s); err != nil {
				return fmt.Errorf("replay entry %d run copy: %w", id, err)
			}
		}
		recovered++
		return nil
	})
	if err != nil {
		return err
	}
	if err := j.Truncate(); err != nil {
		return fmt.Errorf("truncate journal: %w", err)
	}
	if recovered > 0 {
		obs.LogInfo("journal replayed", ports.Field{Key: "samples", Value: recovered})
	}
	obs.SetGauge(observability.MetricJournalEntries, 0)
	return nil
}
