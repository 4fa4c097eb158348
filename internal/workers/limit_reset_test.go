package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seabot/internal/common/clock"
)

func TestNextMidnight(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"evening", time.Date(2025, 3, 14, 22, 30, 0, 0, jakarta), time.Date(2025, 3, 15, 0, 0, 0, 0, jakarta)},
		{"exactly midnight", time.Date(2025, 3, 15, 0, 0, 0, 0, jakarta), time.Date(2025, 3, 16, 0, 0, 0, 0, jakarta)},
		{"month end", time.Date(2025, 1, 31, 9, 0, 0, 0, jakarta), time.Date(2025, 2, 1, 0, 0, 0, 0, jakarta)},
		// 18:00 UTC is already 01:00 the next day in Jakarta
		{"utc input", time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC), time.Date(2025, 3, 16, 0, 0, 0, 0, jakarta)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextMidnight(tt.now, jakarta)), NextMidnight(tt.now, jakarta))
		})
	}
}

type fakeResetter struct {
	calls atomic.Int32
	err   error
}

func (f *fakeResetter) ResetDailyLimits(context.Context) (int64, error) {
	f.calls.Add(1)
	return 3, f.err
}

func TestSchedulerResetsOnEveryTick(t *testing.T) {
	resetter := &fakeResetter{err: errors.New("db down")}
	clk := clock.NewMockClock(time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC))
	s := NewLimitResetScheduler(resetter, clk, time.UTC, zerolog.Nop())

	ticks := make(chan time.Time)
	var waits []time.Duration
	s.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		return ticks
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	ticks <- time.Time{}
	ticks <- time.Time{}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	assert.Equal(t, int32(2), resetter.calls.Load(), "a failed reset does not stop the loop")
	require.NotEmpty(t, waits)
	assert.Equal(t, time.Hour, waits[0])
}
