package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// Settings returns the oven's warning settings. An oven with no stored row
// defaults to warnings enabled with a zero tracker.
func (s *Store) Settings(ctx context.Context, oven string) (domain.WarningSettings, error) {
	var row warningRow
	err := s.db.WithContext(ctx).Where("oven_name = ?", oven).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.WarningSettings{OvenName: oven, WarningsEnabled: true}, nil
	}
	if err != nil {
		return domain.WarningSettings{}, fmt.Errorf("get warning settings: %w", err)
	}
	return decodeWarnings(row)
}

// Save persists the settings and tracker state.
func (s *Store) Save(ctx context.Context, ws domain.WarningSettings) error {
	failures, err := marshalJSON(ws.Tracker.Failures)
	if err != nil {
		return fmt.Errorf("encode failures for %q: %w", ws.OvenName, err)
	}
	row := warningRow{
		OvenName:        ws.OvenName,
		WarningsEnabled: ws.WarningsEnabled,
		FailureCount:    ws.Tracker.Count,
		Failures:        failures,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "oven_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"warnings_enabled", "failure_count", "failures"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save warning settings for %q: %w", ws.OvenName, err)
	}
	return nil
}

// SetEnabled flips the warnings-enabled flag, creating default settings for
// an unknown oven, without touching the tracker.
func (s *Store) SetEnabled(ctx context.Context, oven string, enabled bool) error {
	row := warningRow{OvenName: oven, WarningsEnabled: enabled}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "oven_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"warnings_enabled"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("set warnings enabled for %q: %w", oven, err)
	}
	return nil
}

// ResetTracker zeroes the oven's tracker; the enabled flag is untouched.
// Resetting an oven with no stored settings is a no-op.
func (s *Store) ResetTracker(ctx context.Context, oven string) error {
	err := s.db.WithContext(ctx).
		Model(&warningRow{}).
		Where("oven_name = ?", oven).
		Updates(map[string]any{"failure_count": 0, "failures": ""}).Error
	if err != nil {
		return fmt.Errorf("reset tracker for %q: %w", oven, err)
	}
	return nil
}

// Tracked returns every settings row whose tracker recorded at least one
// failure, for the observer catch-up snapshot.
func (s *Store) Tracked(ctx context.Context) ([]domain.WarningSettings, error) {
	var rows []warningRow
	err := s.db.WithContext(ctx).Where("failure_count > 0").Order("oven_name ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list tracked warnings: %w", err)
	}
	out := make([]domain.WarningSettings, 0, len(rows))
	for _, r := range rows {
		ws, err := decodeWarnings(r)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, nil
}

func decodeWarnings(row warningRow) (domain.WarningSettings, error) {
	var failures []string
	if err := unmarshalJSON(row.Failures, &failures); err != nil {
		return domain.WarningSettings{}, fmt.Errorf("decode failures for %q: %w", row.OvenName, err)
	}
	return domain.WarningSettings{
		OvenName:        row.OvenName,
		WarningsEnabled: row.WarningsEnabled,
		Tracker: domain.FailureTracker{
			Count:    row.FailureCount,
			Failures: failures,
		},
	}, nil
}

var _ ports.WarningStore = (*Store)(nil)
