package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// Append persists one sample to the oven's unscoped log.
func (s *Store) Append(ctx context.Context, sample domain.Sample) error {
	cols, err := encodeSample(sample)
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	row := ovenSampleRow{
		OvenID:    cols.OvenID,
		Timestamp: cols.Timestamp,
		Kind:      cols.Kind,
		BoardID:   cols.BoardID,
		Readings:  cols.Readings,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append sample: %w", err)
	}
	return nil
}

// AppendToRun persists a run-tagged copy into the run-scoped partition.
func (s *Store) AppendToRun(ctx context.Context, sample domain.Sample) error {
	if sample.RunID <= 0 {
		return fmt.Errorf("append to run: sample for %q has no run id", sample.OvenID)
	}
	cols, err := encodeSample(sample)
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	row := runSampleRow{
		OvenID:    cols.OvenID,
		RunID:     cols.RunID,
		Timestamp: cols.Timestamp,
		Kind:      cols.Kind,
		BoardID:   cols.BoardID,
		Readings:  cols.Readings,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append run sample: %w", err)
	}
	return nil
}

// MaxRunID returns the highest persisted run id for oven, 0 when the oven
// has no run-scoped samples yet.
func (s *Store) MaxRunID(ctx context.Context, oven string) (int64, error) {
	var max *int64
	err := s.db.WithContext(ctx).
		Model(&runSampleRow{}).
		Where("oven_id = ?", oven).
		Select("MAX(run_id)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("max run id: %w", err)
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// FindByRun returns the run's samples in chronological order.
func (s *Store) FindByRun(ctx context.Context, oven string, runID int64) ([]domain.Sample, error) {
	var rows []runSampleRow
	err := s.db.WithContext(ctx).
		Where("oven_id = ? AND run_id = ?", oven, runID).
		Order("timestamp ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find by run: %w", err)
	}

	out := make([]domain.Sample, 0, len(rows))
	for _, r := range rows {
		sample, err := decodeSample(r.OvenID, r.Timestamp, r.Kind, r.BoardID, r.Readings, r.RunID)
		if err != nil {
			return nil, fmt.Errorf("decode run sample %d: %w", r.ID, err)
		}
		out = append(out, sample)
	}
	return out, nil
}

// FindRange returns the oven's unscoped samples within [from, to] in
// chronological order. The stored timestamps sort lexicographically in
// chronological order, so the range filter is a plain string comparison.
func (s *Store) FindRange(ctx context.Context, oven string, from, to time.Time) ([]domain.Sample, error) {
	var rows []ovenSampleRow
	err := s.db.WithContext(ctx).
		Where("oven_id = ? AND timestamp >= ? AND timestamp <= ?",
			oven, domain.FormatTimestamp(from), domain.FormatTimestamp(to)).
		Order("timestamp ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find range: %w", err)
	}

	out := make([]domain.Sample, 0, len(rows))
	for _, r := range rows {
		sample, err := decodeSample(r.OvenID, r.Timestamp, r.Kind, r.BoardID, r.Readings, 0)
		if err != nil {
			return nil, fmt.Errorf("decode sample %d: %w", r.ID, err)
		}
		out = append(out, sample)
	}
	return out, nil
}

var _ ports.EventStore = (*Store)(nil)
