package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// Upsert records the oven's last-known lifecycle state.
func (s *Store) Upsert(ctx context.Context, st domain.OvenStatus) error {
	row := statusRow{
		OvenName:  st.OvenName,
		Status:    string(st.Status),
		Timestamp: st.Timestamp,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "oven_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "timestamp"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert status for %q: %w", st.OvenName, err)
	}
	return nil
}

// All returns every oven's last-known state ordered by name.
func (s *Store) All(ctx context.Context) ([]domain.OvenStatus, error) {
	var rows []statusRow
	if err := s.db.WithContext(ctx).Order("oven_name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	out := make([]domain.OvenStatus, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.OvenStatus{
			OvenName:  r.OvenName,
			Status:    domain.Status(r.Status),
			Timestamp: r.Timestamp,
		})
	}
	return out, nil
}

var _ ports.StatusStore = (*Store)(nil)
