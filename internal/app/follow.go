package app

import (
	"context"
	"time"

	"github.com/five82/deckhand/internal/logging"
	"github.com/five82/deckhand/internal/logtail"
)

// FollowLogs fetches target's tail and hands every visible change to emit.
// Without follow it returns after the first fetch, reporting its error. With
// follow it polls every interval until ctx is done, turning fetch failures
// into error placeholders and backing off while they persist.
func FollowLogs(ctx context.Context, fetcher logtail.Fetcher, target string, window int, interval time.Duration, follow bool, emit func(logtail.Instruction)) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := logging.WithComponent("follow").With().Str("target", target).Logger()

	s := logtail.NewViewState(target, window)
	var seq uint64
	var shown logtail.Instruction
	failures := 0
	for {
		seq++
		raw, err := fetcher.FetchTail(ctx, target, s.Window)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !follow {
			return err
		}

		in, next := logtail.Reconcile(s, logtail.Input{Seq: seq, Raw: raw, Err: err, WasAtBottom: true})
		s = next
		if in.Changed() && !samePlaceholder(shown, in) {
			emit(in)
			shown = in
		}
		if !follow {
			return nil
		}

		if err != nil {
			failures++
			logger.Debug().Err(err).Int("failures", failures).Msg("tail fetch failed")
		} else {
			failures = 0
		}

		timer := time.NewTimer(calculateBackoff(failures, interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// samePlaceholder reports whether in repeats the placeholder already shown,
// so a quiet or unreachable target is reported once rather than every poll.
func samePlaceholder(shown, in logtail.Instruction) bool {
	if in.Placeholder == logtail.PlaceholderNone || in.Placeholder != shown.Placeholder {
		return false
	}
	return errText(in.Err) == errText(shown.Err)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
