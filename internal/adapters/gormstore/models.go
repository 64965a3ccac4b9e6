package gormstore

import (
	"time"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
)

// ovenSampleRow is the unscoped per-oven event log.
type ovenSampleRow struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	OvenID    string    `gorm:"index:idx_samples_oven_ts,priority:1;not null;size:255"`
	Timestamp string    `gorm:"index:idx_samples_oven_ts,priority:2;not null;size:32"`
	Kind      string    `gorm:"not null;size:16"`
	BoardID   string    `gorm:"size:64"`
	Readings  string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ovenSampleRow) TableName() string { return "oven_samples" }

// runSampleRow is the run-scoped partition: a denormalized copy of samples
// ingested while a run was open, keyed by (oven, run).
type runSampleRow struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	OvenID    string    `gorm:"index:idx_runs_oven_run,priority:1;not null;size:255"`
	RunID     int64     `gorm:"index:idx_runs_oven_run,priority:2;not null"`
	Timestamp string    `gorm:"not null;size:32"`
	Kind      string    `gorm:"not null;size:16"`
	BoardID   string    `gorm:"size:64"`
	Readings  string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (runSampleRow) TableName() string { return "run_samples" }

// deviceRow is one registered oven.
type deviceRow struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Name       string    `gorm:"uniqueIndex;not null;size:255"`
	Category   string    `gorm:"size:255"`
	BoardCount int       `gorm:"not null;default:0"`
	Limits     string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (deviceRow) TableName() string { return "ovens" }

// statusRow is the last-known lifecycle state per oven.
type statusRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OvenName  string `gorm:"uniqueIndex;not null;size:255"`
	Status    string `gorm:"not null;size:16"`
	Timestamp string `gorm:"not null;size:32"`
}

func (statusRow) TableName() string { return "oven_statuses" }

// warningRow is the per-oven warning configuration plus tracker state.
type warningRow struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	OvenName        string `gorm:"uniqueIndex;not null;size:255"`
	WarningsEnabled bool   `gorm:"not null;default:true"`
	FailureCount    int    `gorm:"not null;default:0"`
	Failures        string `gorm:"type:text"`
}

func (warningRow) TableName() string { return "warning_settings" }

func allModels() []any {
	return []any{
		&ovenSampleRow{},
		&runSampleRow{},
		&deviceRow{},
		&statusRow{},
		&warningRow{},
	}
}

// sampleColumns is the portable row form shared by both sample tables.
type sampleColumns struct {
	OvenID    string
	RunID     int64
	Timestamp string
	Kind      string
	BoardID   string
	Readings  string
}

func encodeSample(s domain.Sample) (sampleColumns, error) {
	readings, err := marshalJSON(s.Readings)
	if err != nil {
		return sampleColumns{}, err
	}
	return sampleColumns{
		OvenID:    s.OvenID,
		RunID:     s.RunID,
		Timestamp: s.Timestamp,
		Kind:      string(s.Kind),
		BoardID:   s.BoardID,
		Readings:  readings,
	}, nil
}

func decodeSample(ovenID, timestamp, kind, boardID, readings string, runID int64) (domain.Sample, error) {
	var r map[domain.Channel]domain.Reading
	if err := unmarshalJSON(readings, &r); err != nil {
		return domain.Sample{}, err
	}
	return domain.Sample{
		OvenID:    ovenID,
		Timestamp: timestamp,
		Kind:      domain.RecordKind(kind),
		BoardID:   boardID,
		RunID:     runID,
		Readings:  r,
	}, nil
}
