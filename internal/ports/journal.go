package ports

import "github.com/M-Kouli/Data-Collection-System/internal/domain"

// JournalEntryID identifies one appended journal entry.
type JournalEntryID uint64

// Journal is the durable fallback log for samples the event store could not
// accept. Entries are replayed into the store at startup and truncated once
// recovered.
type Journal interface {
	Append(s domain.Sample) (JournalEntryID, error)
	// Replay calls fn for every entry in append order. A non-nil error from
	// fn stops the replay and is returned.
	Replay(fn func(id JournalEntryID, s domain.Sample) error) error
	// Truncate discards all entries.
	Truncate() error
	Stats() JournalStats
}

// JournalStats describes the journal's current extent.
type JournalStats struct {
	Entries   int
	SizeBytes int64
}
