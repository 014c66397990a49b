package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kebunku/internal/config"
)

type window struct{ start, end time.Time }

type recordingExporter struct {
	windows []window
	err     error
}

func (r *recordingExporter) Export(_ context.Context, start, end time.Time) (int, error) {
	r.windows = append(r.windows, window{start, end})
	return 1, r.err
}

func TestRunOnceAdvancesWindow(t *testing.T) {
	exp := &recordingExporter{}
	s, err := NewScheduler(config.JournalConfig{CronSchedule: "0 20 * * *", Timezone: "UTC"}, exp, nil)
	require.NoError(t, err)

	t0 := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t0 }
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)

	exp.err = errors.New("sheet unavailable")
	s.now = func() time.Time { return t0.Add(24 * time.Hour) }
	_, err = s.RunOnce(context.Background())
	require.Error(t, err)

	exp.err = nil
	s.now = func() time.Time { return t0.Add(48 * time.Hour) }
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, exp.windows, 3)
	assert.Equal(t, t0.Add(-24*time.Hour), exp.windows[0].start)
	assert.Equal(t, t0, exp.windows[1].start)
	assert.Equal(t, t0, exp.windows[2].start)
	assert.Equal(t, t0.Add(48*time.Hour), exp.windows[2].end)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s, err := NewScheduler(config.JournalConfig{CronSchedule: "whenever", Timezone: "UTC"}, &recordingExporter{}, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestNewSchedulerRejectsBadTimezone(t *testing.T) {
	_, err := NewScheduler(config.JournalConfig{CronSchedule: "0 20 * * *", Timezone: "Mars/Olympus"}, &recordingExporter{}, nil)
	assert.Error(t, err)
}
