package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/deckhand/internal/docker"
	"github.com/five82/deckhand/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestCalculateBackoff_NeverBelowInterval(t *testing.T) {
	base := time.Minute
	assert.Equal(t, base, calculateBackoff(3, base))
}

type fakeLister struct {
	mu    sync.Mutex
	calls int
	fail  error
	list  []docker.Container
}

func (f *fakeLister) ListContainers(context.Context) ([]docker.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	return f.list, nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStartPoller_RefreshesStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lister := &fakeLister{list: []docker.Container{{ID: "a1", Name: "web"}}}
	store := &state.Store{}
	StartPoller(ctx, store, lister, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return lister.callCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	snap := store.Snapshot()
	require.Len(t, snap.Containers, 1)
	assert.Equal(t, "web", snap.Containers[0].Name)
}

func TestStartPoller_RecordsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lister := &fakeLister{fail: errors.New("daemon down")}
	store := &state.Store{}
	StartPoller(ctx, store, lister, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return store.Snapshot().ConsecutiveFailures >= 2
	}, 2*time.Second, time.Millisecond)
	snap := store.Snapshot()
	assert.True(t, snap.IsOffline())
	assert.EqualError(t, snap.LastError, "daemon down")
}

func TestStartPoller_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lister := &fakeLister{}
	StartPoller(ctx, &state.Store{}, lister, 5*time.Millisecond)

	require.Eventually(t, func() bool { return lister.callCount() >= 1 }, 2*time.Second, time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	stopped := lister.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, lister.callCount())
}
