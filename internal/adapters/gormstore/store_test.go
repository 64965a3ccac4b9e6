package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndFindRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	lower, upper := 145.0, 255.0

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, v := range []float64{200, 260, 210} {
		sample := domain.Sample{
			OvenID:    "Oven1",
			Timestamp: domain.FormatTimestamp(base.Add(time.Duration(i) * time.Second)),
			Kind:      domain.KindOven,
			Readings: map[domain.Channel]domain.Reading{
				domain.ChannelTemperature: {Value: v, Lower: &lower, Upper: &upper},
			},
		}
		require.NoError(t, s.Append(ctx, sample))
	}
	// A sample for another oven must not leak into the range.
	require.NoError(t, s.Append(ctx, domain.Sample{
		OvenID:    "Oven2",
		Timestamp: domain.FormatTimestamp(base),
		Kind:      domain.KindOven,
		Readings:  map[domain.Channel]domain.Reading{domain.ChannelTemperature: {Value: 1}},
	}))

	got, err := s.FindRange(ctx, "Oven1", base, base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 3)

	r, ok := got[1].Reading(domain.ChannelTemperature)
	require.True(t, ok)
	assert.Equal(t, 260.0, r.Value)
	require.NotNil(t, r.Lower)
	require.NotNil(t, r.Upper)
	assert.Equal(t, 145.0, *r.Lower)
	assert.Equal(t, 255.0, *r.Upper)

	// Sub-range excludes samples outside the window.
	got, err = s.FindRange(ctx, "Oven1", base, base.Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRunPartition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	max, err := s.MaxRunID(ctx, "Oven1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), max, "empty store must report 0")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, runID := range []int64{1, 1, 2} {
		require.NoError(t, s.AppendToRun(ctx, domain.Sample{
			OvenID:    "Oven1",
			Timestamp: domain.FormatTimestamp(base.Add(time.Duration(i) * time.Second)),
			Kind:      domain.KindOven,
			RunID:     runID,
			Readings:  map[domain.Channel]domain.Reading{domain.ChannelTemperature: {Value: 200}},
		}))
	}

	max, err = s.MaxRunID(ctx, "Oven1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), max)

	max, err = s.MaxRunID(ctx, "Oven2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), max, "run ids are per oven")

	run1, err := s.FindByRun(ctx, "Oven1", 1)
	require.NoError(t, err)
	require.Len(t, run1, 2)
	for _, smp := range run1 {
		assert.Equal(t, int64(1), smp.RunID)
	}
	assert.True(t, run1[0].Timestamp <= run1[1].Timestamp, "run samples must be chronological")
}

func TestAppendToRunRejectsZeroRunID(t *testing.T) {
	s := newTestStore(t)
	err := s.AppendToRun(context.Background(), domain.Sample{OvenID: "Oven1", Kind: domain.KindOven})
	assert.Error(t, err)
}

func TestDeviceRegistryCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	lower, upper := 145.0, 255.0

	_, err := s.Get(ctx, "Oven1")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	dev := domain.Device{
		Name:       "Oven1",
		Category:   "reflow",
		BoardCount: 4,
		Limits: map[domain.Channel]domain.ControlLimits{
			domain.ChannelTemperature: {Lower: &lower, Upper: &upper},
		},
	}
	require.NoError(t, s.CreateDevice(ctx, dev))

	got, err := s.Get(ctx, "Oven1")
	require.NoError(t, err)
	assert.Equal(t, "reflow", got.Category)
	assert.Equal(t, 4, got.BoardCount)
	l := got.LimitsFor(domain.ChannelTemperature)
	require.NotNil(t, l.Lower)
	assert.Equal(t, 145.0, *l.Lower)

	dev.Category = "wave"
	require.NoError(t, s.UpdateDevice(ctx, dev))
	got, err = s.Get(ctx, "Oven1")
	require.NoError(t, err)
	assert.Equal(t, "wave", got.Category)

	assert.ErrorIs(t, s.UpdateDevice(ctx, domain.Device{Name: "Ghost"}), ports.ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteDevice(ctx, "Oven1"))
	_, err = s.Get(ctx, "Oven1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestWarningSettingsLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Unknown oven defaults to enabled with a zero tracker.
	ws, err := s.Settings(ctx, "Oven1")
	require.NoError(t, err)
	assert.True(t, ws.WarningsEnabled)
	assert.Equal(t, 0, ws.Tracker.Count)

	ws.Tracker.Record("Temperature Out of Range")
	ws.Tracker.Record("Temperature Out of Range")
	require.NoError(t, s.Save(ctx, ws))

	ws, err = s.Settings(ctx, "Oven1")
	require.NoError(t, err)
	assert.Equal(t, 2, ws.Tracker.Count)
	assert.Equal(t, []string{"Temperature Out of Range"}, ws.Tracker.Failures)

	tracked, err := s.Tracked(ctx)
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, "Oven1", tracked[0].OvenName)

	// Disabling must not clear the tracker.
	require.NoError(t, s.SetEnabled(ctx, "Oven1", false))
	ws, err = s.Settings(ctx, "Oven1")
	require.NoError(t, err)
	assert.False(t, ws.WarningsEnabled)
	assert.Equal(t, 2, ws.Tracker.Count)

	// Resetting must not flip the flag back.
	require.NoError(t, s.ResetTracker(ctx, "Oven1"))
	ws, err = s.Settings(ctx, "Oven1")
	require.NoError(t, err)
	assert.False(t, ws.WarningsEnabled)
	assert.Equal(t, 0, ws.Tracker.Count)
	assert.Empty(t, ws.Tracker.Failures)

	tracked, err = s.Tracked(ctx)
	require.NoError(t, err)
	assert.Empty(t, tracked)
}

func TestStatusUpsertKeepsOneRowPerOven(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, domain.OvenStatus{
		OvenName: "Oven1", Status: domain.StatusIdle, Timestamp: "2024-05-01T12:00:00Z",
	}))
	require.NoError(t, s.Upsert(ctx, domain.OvenStatus{
		OvenName: "Oven1", Status: domain.StatusActive, Timestamp: "2024-05-01T12:00:05Z",
	}))
	require.NoError(t, s.Upsert(ctx, domain.OvenStatus{
		OvenName: "Oven2", Status: domain.StatusIdle, Timestamp: "2024-05-01T12:00:06Z",
	}))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byName := map[string]domain.OvenStatus{}
	for _, st := range all {
		byName[st.OvenName] = st
	}
	assert.Equal(t, domain.StatusActive, byName["Oven1"].Status)
	assert.Equal(t, "2024-05-01T12:00:05Z", byName["Oven1"].Timestamp)
}
