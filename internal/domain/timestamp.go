package domain

import "time"

// TimestampLayout is the storage representation for sample and status
// timestamps. UTC RFC3339 is fixed-width, so lexicographic order on the
// stored string equals chronological order; consumers that sort or reverse
// result sets rely on this.
const TimestampLayout = time.RFC3339

// FormatTimestamp renders t in the storage representation.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a stored or client-supplied timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}
