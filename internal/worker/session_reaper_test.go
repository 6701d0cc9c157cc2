package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-checkin/pkg/logger"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
}

func (f *fakeExpirer) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSweepUsesClock(t *testing.T) {
	at := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	exp := &fakeExpirer{n: 3}
	reaper := NewSessionReaper(exp, time.Minute, logger.Nop())
	reaper.now = func() time.Time { return at }

	n, err := reaper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []time.Time{at}, exp.calls)
}

func TestSweepWrapsError(t *testing.T) {
	boom := errors.New("db down")
	reaper := NewSessionReaper(&fakeExpirer{err: boom}, time.Minute, logger.Nop())

	_, err := reaper.Sweep(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestStartRunsUntilCancelled(t *testing.T) {
	exp := &fakeExpirer{err: errors.New("transient")}
	reaper := NewSessionReaper(exp, 5*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return exp.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
