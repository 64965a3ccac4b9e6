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

// Get returns the registered oven by name.
func (s *Store) Get(ctx context.Context, name string) (domain.Device, error) {
	var row deviceRow
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Device{}, fmt.Errorf("oven %q: %w", name, ports.ErrNotFound)
	}
	if err != nil {
		return domain.Device{}, fmt.Errorf("get oven: %w", err)
	}
	return decodeDevice(row)
}

// List returns all registered ovens ordered by name.
func (s *Store) List(ctx context.Context) ([]domain.Device, error) {
	var rows []deviceRow
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list ovens: %w", err)
	}
	out := make([]domain.Device, 0, len(rows))
	for _, r := range rows {
		dev, err := decodeDevice(r)
		if err != nil {
			return nil, err
		}
		out = append(out, dev)
	}
	return out, nil
}

// CreateDevice registers a new oven. The name must be unused.
func (s *Store) CreateDevice(ctx context.Context, dev domain.Device) error {
	row, err := encodeDevice(dev)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create oven %q: %w", dev.Name, err)
	}
	return nil
}

// UpdateDevice replaces the oven's metadata and limit configuration.
func (s *Store) UpdateDevice(ctx context.Context, dev domain.Device) error {
	row, err := encodeDevice(dev)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Model(&deviceRow{}).
		Where("name = ?", dev.Name).
		Select("category", "board_count", "limits").
		Updates(map[string]any{
			"category":    row.Category,
			"board_count": row.BoardCount,
			"limits":      row.Limits,
		})
	if res.Error != nil {
		return fmt.Errorf("update oven %q: %w", dev.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("oven %q: %w", dev.Name, ports.ErrNotFound)
	}
	return nil
}

// DeleteDevice removes the oven from the registry. Its event log is kept.
func (s *Store) DeleteDevice(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&deviceRow{})
	if res.Error != nil {
		return fmt.Errorf("delete oven %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("oven %q: %w", name, ports.ErrNotFound)
	}
	return nil
}

// UpsertDevice creates or replaces an oven registration, used by the
// provisioning path.
func (s *Store) UpsertDevice(ctx context.Context, dev domain.Device) error {
	row, err := encodeDevice(dev)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"category", "board_count", "limits"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert oven %q: %w", dev.Name, err)
	}
	return nil
}

func encodeDevice(dev domain.Device) (deviceRow, error) {
	limits, err := marshalJSON(dev.Limits)
	if err != nil {
		return deviceRow{}, fmt.Errorf("encode limits for %q: %w", dev.Name, err)
	}
	return deviceRow{
		Name:       dev.Name,
		Category:   dev.Category,
		BoardCount: dev.BoardCount,
		Limits:     limits,
	}, nil
}

func decodeDevice(row deviceRow) (domain.Device, error) {
	var limits map[domain.Channel]domain.ControlLimits
	if err := unmarshalJSON(row.Limits, &limits); err != nil {
		return domain.Device{}, fmt.Errorf("decode limits for %q: %w", row.Name, err)
	}
	return domain.Device{
		Name:       row.Name,
		Category:   row.Category,
		BoardCount: row.BoardCount,
		Limits:     limits,
	}, nil
}

var _ ports.DeviceRegistry = (*Store)(nil)
