package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerFiresOnlyLast(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var mu sync.Mutex
	var fired []string
	for _, q := range []string{"b", "ba", "bat", "batman"} {
		q := q
		d.Schedule(func(ctx context.Context) {
			mu.Lock()
			fired = append(fired, q)
			mu.Unlock()
		})
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"batman"}, fired)
}

func TestDebouncerCancelDropsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	d.Schedule(func(ctx context.Context) { calls.Add(1) })
	d.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestDebouncerSupersedeCancelsRunningTask(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)
	defer d.Stop()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	d.Schedule(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first task never fired")
	}

	d.Schedule(func(ctx context.Context) {})

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running task was not cancelled by the newer schedule")
	}
}

func TestDebouncerStopIgnoresLaterSchedules(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)
	d.Stop()

	var calls atomic.Int32
	d.Schedule(func(ctx context.Context) { calls.Add(1) })

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
