package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	mu    sync.Mutex
	calls []time.Duration
	n     int
	err   error
}

func (f *fakeCleaner) CleanupOlderThan(_ context.Context, age time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, age)
	return f.n, f.err
}

func (f *fakeCleaner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRetentionConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RetentionConfig)
		wantErr bool
	}{
		{"default", func(*RetentionConfig) {}, false},
		{"zero age", func(c *RetentionConfig) { c.MaxAge = 0 }, true},
		{"hour out of range", func(c *RetentionConfig) { c.Hour = 24 }, true},
		{"minute out of range", func(c *RetentionConfig) { c.Minute = -1 }, true},
		{"zero interval", func(c *RetentionConfig) { c.CheckInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRetentionConfig(30 * 24 * time.Hour)
			tt.mutate(&cfg)
			_, err := NewRetentionSweeper(cfg, &fakeCleaner{}, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetentionSweeper_CheckAndRun(t *testing.T) {
	cleaner := &fakeCleaner{n: 4}
	sweeper, err := NewRetentionSweeper(DefaultRetentionConfig(48*time.Hour), cleaner, nil)
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 2, 59, 0, 0, time.Local)
	sweeper.now = func() time.Time { return now }

	assert.False(t, sweeper.checkAndRun(t.Context()), "before run time")

	now = now.Add(time.Minute)
	assert.True(t, sweeper.checkAndRun(t.Context()))
	assert.False(t, sweeper.checkAndRun(t.Context()), "only once per day")

	now = now.Add(24 * time.Hour)
	assert.True(t, sweeper.checkAndRun(t.Context()))

	require.Equal(t, 2, cleaner.callCount())
	assert.Equal(t, 48*time.Hour, cleaner.calls[0])
}

func TestRetentionSweeper_RunOnce(t *testing.T) {
	cleaner := &fakeCleaner{n: 3}
	sweeper, err := NewRetentionSweeper(DefaultRetentionConfig(time.Hour), cleaner, nil)
	require.NoError(t, err)

	n, err := sweeper.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cleaner.err = errors.New("disk gone")
	_, err = sweeper.RunOnce(t.Context())
	assert.ErrorContains(t, err, "disk gone")
}

func TestRetentionSweeper_StartStop(t *testing.T) {
	cfg := DefaultRetentionConfig(time.Hour)
	cfg.CheckInterval = 5 * time.Millisecond
	sweeper, err := NewRetentionSweeper(cfg, &fakeCleaner{}, nil)
	require.NoError(t, err)

	require.NoError(t, sweeper.Start(t.Context()))
	require.NoError(t, sweeper.Start(t.Context()), "second start is a no-op")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sweeper.Stop(ctx))
	require.NoError(t, sweeper.Stop(ctx), "second stop is a no-op")
}
