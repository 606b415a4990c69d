package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/deckhand/internal/logtail"
)

type scriptedFetcher struct {
	mu      sync.Mutex
	outputs []string
	errs    []error
	calls   int
}

func (f *scriptedFetcher) FetchTail(_ context.Context, _ string, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.outputs) {
		i = len(f.outputs) - 1
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.outputs[i], err
}

func texts(lines []logtail.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestFollowLogs_SingleFetch(t *testing.T) {
	f := &scriptedFetcher{outputs: []string{"a\nb\n"}}
	var got []logtail.Instruction
	err := FollowLogs(context.Background(), f, "web", 100, time.Millisecond, false, func(in logtail.Instruction) {
		got = append(got, in)
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, logtail.ModeReplace, got[0].Mode)
	assert.Equal(t, []string{"a", "b"}, texts(got[0].Lines))
}

func TestFollowLogs_SingleFetchError(t *testing.T) {
	boom := errors.New("no daemon")
	f := &scriptedFetcher{outputs: []string{""}, errs: []error{boom}}
	err := FollowLogs(context.Background(), f, "web", 100, time.Millisecond, false, func(logtail.Instruction) {
		t.Fatal("emit must not be called on error")
	})
	assert.ErrorIs(t, err, boom)
}

func TestFollowLogs_EmitsOnlyNewLines(t *testing.T) {
	f := &scriptedFetcher{outputs: []string{
		"a\nb\nc\n",
		"b\nc\nd\n",
		"b\nc\nd\n",
		"c\nd\ne\n",
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []string
	done := make(chan error, 1)
	go func() {
		done <- FollowLogs(ctx, f, "web", 100, time.Millisecond, true, func(in logtail.Instruction) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, texts(in.Lines)...)
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 5
	}, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "a b c d e", strings.Join(seen[:5], " "))
}

func TestFollowLogs_RepeatedPlaceholderEmittedOnce(t *testing.T) {
	boom := errors.New("no daemon")
	f := &scriptedFetcher{
		outputs: []string{"", "", "", "", "x\n"},
		errs:    []error{nil, nil, boom, boom},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []logtail.Instruction
	done := make(chan error, 1)
	go func() {
		done <- FollowLogs(ctx, f, "web", 100, time.Millisecond, true, func(in logtail.Instruction) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, in)
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 3
	}, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, logtail.PlaceholderNoLogs, got[0].Placeholder)
	assert.Equal(t, logtail.PlaceholderError, got[1].Placeholder)
	assert.Equal(t, []string{"x"}, texts(got[2].Lines))
}
