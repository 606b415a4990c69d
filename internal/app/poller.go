package app

import (
	"context"
	"time"

	"github.com/five82/deckhand/internal/docker"
	"github.com/five82/deckhand/internal/logging"
	"github.com/five82/deckhand/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
	refreshTimeout      = 10 * time.Second
)

// StartPoller launches a background goroutine that refreshes the container
// list in store. Consecutive failures back off exponentially up to
// maxBackoff. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, lister docker.Lister, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := logging.WithComponent("poller")
	go func() {
		failures := 0
		for {
			if err := refresh(ctx, store, lister); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				logger.Warn().Err(err).Int("failures", failures).Msg("container poll failed")
			} else {
				failures = 0
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, lister docker.Lister) error {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	containers, err := lister.ListContainers(ctx)
	if err != nil {
		store.Update(nil, err)
		return err
	}
	store.Update(containers, nil)
	return nil
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff but never shorter than base itself.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	if d < base {
		d = base
	}
	return d
}
