package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/deckhand/internal/docker"
)

// Snapshot represents the latest container list available to the UI.
type Snapshot struct {
	Containers          []docker.Container
	HasContainers       bool // at least one successful refresh happened
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when docker has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Find returns the container with the given ID or name.
func (s Snapshot) Find(idOrName string) (docker.Container, bool) {
	for _, c := range s.Containers {
		if c.ID == idOrName || c.Name == idOrName {
			return c, true
		}
	}
	return docker.Container{}, false
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored container list. When err is non-nil the previous
// list is kept but the error is recorded for visibility.
func (s *Store) Update(containers []docker.Container, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Containers = cloneContainers(containers)
	s.snapshot.HasContainers = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Containers = cloneContainers(s.snapshot.Containers)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneContainers(items []docker.Container) []docker.Container {
	if len(items) == 0 {
		return nil
	}
	dup := make([]docker.Container, len(items))
	copy(dup, items)
	return dup
}
