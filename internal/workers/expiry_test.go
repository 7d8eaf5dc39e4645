package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeExpirer) ExpireDue(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return 1, f.err
}

func (f *fakeExpirer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePurger struct {
	purgedAt []time.Time
}

func (f *fakePurger) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	f.purgedAt = append(f.purgedAt, now)
	return 0, nil
}

func TestExpiryWorker_RunOnce(t *testing.T) {
	at := time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC)
	exp := &fakeExpirer{err: errors.New("partial failure")}
	purger := &fakePurger{}

	w := NewExpiryWorker(exp, purger, time.Hour, nil)
	w.now = func() time.Time { return at }
	w.RunOnce(context.Background())

	require.Len(t, exp.calls, 1)
	assert.Equal(t, at, exp.calls[0])
	assert.Equal(t, []time.Time{at}, purger.purgedAt, "token purge runs even when expiry reports errors")
}

func TestExpiryWorker_RunStopsWithContext(t *testing.T) {
	exp := &fakeExpirer{}
	w := NewExpiryWorker(exp, nil, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return exp.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
