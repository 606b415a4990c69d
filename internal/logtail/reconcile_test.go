package logtail

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func fetch(s ViewState, text string) (Instruction, ViewState) {
	return Reconcile(s, Input{Raw: text, WasAtBottom: true})
}

func TestReconcile_EndToEndScenario(t *testing.T) {
	s := NewViewState("web", 100)

	in, s := fetch(s, raw("a", "b", "c"))
	assert.Equal(t, ModeReplace, in.Mode)
	assert.Equal(t, []string{"a", "b", "c"}, lineTexts(in.Lines))

	in, s = fetch(s, raw("b", "c", "d"))
	assert.Equal(t, ModeAppend, in.Mode)
	assert.Equal(t, []string{"d"}, lineTexts(in.Lines))
	assert.Equal(t, []string{"a", "b", "c", "d"}, lineTexts(s.Display.Lines))

	in, s = Clear(s)
	assert.Equal(t, PlaceholderWaiting, in.Placeholder)
	assert.Empty(t, s.Display.Lines)

	in, s = fetch(s, raw("b", "c", "d"))
	assert.False(t, in.Changed(), "nothing after the clear boundary yet")
	assert.Equal(t, PlaceholderWaiting, s.Display.Placeholder)

	in, s = fetch(s, raw("b", "c", "d", "e"))
	assert.Equal(t, ModeReplace, in.Mode)
	assert.Equal(t, []string{"e"}, lineTexts(in.Lines))
	assert.False(t, s.Display.Cleared)

	in, _ = fetch(s, raw("d", "e", "f"))
	assert.Equal(t, ModeAppend, in.Mode)
	assert.Equal(t, []string{"f"}, lineTexts(in.Lines))
}

func TestReconcile_PrefixExtensionAppendsExactSuffix(t *testing.T) {
	base := []string{"l1", "l2", "l3", "l4"}
	for extra := 0; extra <= 3; extra++ {
		s := NewViewState("t", 100)
		_, s = fetch(s, raw(base...))

		next := append([]string(nil), base...)
		var want []string
		for i := 0; i < extra; i++ {
			line := "new" + string(rune('a'+i))
			next = append(next, line)
			want = append(want, line)
		}
		in, _ := fetch(s, raw(next...))
		assert.Equal(t, ModeAppend, in.Mode, "extra=%d", extra)
		assert.Equal(t, want, lineTexts(in.Lines), "extra=%d", extra)
	}
}

func TestReconcile_RotationFallsBackToReplace(t *testing.T) {
	s := NewViewState("t", 100)
	_, s = fetch(s, raw("a", "b", "c"))

	in, s := fetch(s, raw("x", "y", "z"))
	assert.Equal(t, ModeReplace, in.Mode)
	assert.Equal(t, []string{"x", "y", "z"}, lineTexts(in.Lines))
	assert.Equal(t, []string{"x", "y", "z"}, lineTexts(s.Display.Lines))
}

func TestReconcile_ForcedReloadReplaces(t *testing.T) {
	s := NewViewState("t", 100)
	_, s = fetch(s, raw("a", "b"))

	in, _ := Reconcile(s, Input{Raw: raw("a", "b", "c"), ForcedReload: true})
	assert.Equal(t, ModeReplace, in.Mode)
	assert.Equal(t, []string{"a", "b", "c"}, lineTexts(in.Lines))
}

func TestReconcile_FirstMatchWinsOnDuplicates(t *testing.T) {
	s := NewViewState("t", 100)
	_, s = fetch(s, raw("start", "ping"))

	in, _ := fetch(s, raw("ping", "pong", "ping", "done"))
	assert.Equal(t, ModeAppend, in.Mode)
	assert.Equal(t, []string{"pong", "ping", "done"}, lineTexts(in.Lines))
}

// Identical lines (timestamps already stripped) are matched at their first
// occurrence, so a run of repeats is appended again rather than risk
// dropping a genuinely new line.
func TestReconcile_RepeatedLinesReappendAfterFirstMatch(t *testing.T) {
	s := NewViewState("web", 100)
	_, s = fetch(s, raw(
		"2024-05-01T12:00:00Z GET /health 200",
		"2024-05-01T12:00:05Z GET /health 200",
	))
	require.Len(t, s.Display.Lines, 2)

	in, s := fetch(s, raw(
		"2024-05-01T12:00:00Z GET /health 200",
		"2024-05-01T12:00:05Z GET /health 200",
		"2024-05-01T12:00:10Z GET /health 200",
	))
	assert.Equal(t, ModeAppend, in.Mode)
	assert.Equal(t, []string{"GET /health 200", "GET /health 200"}, lineTexts(in.Lines))
	assert.Len(t, s.Display.Lines, 4)

	in, _ = fetch(s, raw(
		"2024-05-01T12:00:10Z GET /health 200",
		"2024-05-01T12:00:15Z POST /jobs 201",
	))
	assert.Equal(t, []string{"POST /jobs 201"}, lineTexts(in.Lines))
}

func TestReconcile_EmptyOutputIsTerminalState(t *testing.T) {
	s := NewViewState("t", 100)
	_, s = fetch(s, raw("a"))

	in, s := fetch(s, "")
	assert.Equal(t, ModeReplace, in.Mode)
	assert.Equal(t, PlaceholderNoLogs, in.Placeholder)
	assert.Empty(t, s.Display.Lines)
	assert.True(t, s.Display.NeedsReplace)

	in, _ = fetch(s, raw("a", "b"))
	assert.Equal(t, ModeReplace, in.Mode, "fetch after empty must replace")
	assert.Equal(t, []string{"a", "b"}, lineTexts(in.Lines))
}

func TestReconcile_FetchErrorResetsDisplay(t *testing.T) {
	s := NewViewState("t", 100)
	_, s = fetch(s, raw("a", "b"))

	boom := errors.New("daemon unreachable")
	in, s := Reconcile(s, Input{Err: boom, WasAtBottom: true})
	assert.Equal(t, PlaceholderError, in.Placeholder)
	assert.ErrorIs(t, in.Err, boom)
	assert.ErrorIs(t, s.LastErr, boom)
	assert.Empty(t, s.Display.Lines)

	in, s = fetch(s, raw("a", "b", "c"))
	assert.Equal(t, ModeReplace, in.Mode)
	assert.Nil(t, s.LastErr)
}

func TestReconcile_RespectsTailWindow(t *testing.T) {
	s := NewViewState("t", 3)
	in, s := fetch(s, raw("1", "2", "3", "4", "5"))
	assert.Equal(t, []string{"3", "4", "5"}, lineTexts(in.Lines))

	in, s = fetch(s, raw("4", "5", "6"))
	assert.Equal(t, ModeAppend, in.Mode)
	assert.Equal(t, []string{"4", "5", "6"}, lineTexts(s.Display.Lines))

	in, s = fetch(s, raw("6", "7", "8", "9", "10"))
	assert.Equal(t, ModeReplace, in.Mode, "more new lines than the window redraws")
	assert.Equal(t, []string{"8", "9", "10"}, lineTexts(s.Display.Lines))
}

func TestReconcile_AutoScrollFollowsPriorPosition(t *testing.T) {
	s := NewViewState("t", 100)
	_, s = fetch(s, raw("a"))

	in, s := Reconcile(s, Input{Raw: raw("a", "b"), WasAtBottom: false})
	assert.False(t, in.AutoScroll)
	assert.Equal(t, []string{"b"}, lineTexts(in.Lines))

	in, _ = Reconcile(s, Input{Raw: raw("b", "c"), WasAtBottom: true})
	assert.True(t, in.AutoScroll)
}

func TestReconcile_DiscardsOutOfOrderSnapshots(t *testing.T) {
	s := NewViewState("t", 100)
	_, s = Reconcile(s, Input{Seq: 2, Raw: raw("a", "b")})

	in, s2 := Reconcile(s, Input{Seq: 1, Raw: raw("x")})
	assert.False(t, in.Changed())
	assert.Equal(t, s, s2)
}

func TestClear_BoundaryRotatedOutShowsSnapshot(t *testing.T) {
	s := NewViewState("t", 100)
	_, s = fetch(s, raw("a", "b"))
	_, s = Clear(s)

	in, s := fetch(s, raw("x", "y"))
	assert.Equal(t, ModeReplace, in.Mode)
	assert.Equal(t, []string{"x", "y"}, lineTexts(in.Lines))
	assert.False(t, s.Display.Cleared)
}

func TestClear_EmptyDisplayWaitsThenReplaces(t *testing.T) {
	s := NewViewState("t", 100)
	in, s := Clear(s)
	assert.Equal(t, PlaceholderWaiting, in.Placeholder)

	in, _ = fetch(s, raw("a"))
	assert.Equal(t, ModeReplace, in.Mode)
	assert.Equal(t, []string{"a"}, lineTexts(in.Lines))
}

func TestHighlight_TracksDisplayedText(t *testing.T) {
	s := NewViewState("t", 100)
	_, s = fetch(s, raw("error one", "fine", "ERROR two"))

	res, s := Highlight(s, "error")
	require.Equal(t, 2, res.State.Count)
	assert.Equal(t, 0, s.Search.Current)

	s.Search.Current = 1
	_, s = fetch(s, raw("ERROR two", "error three"))
	res, s = Highlight(s, "error")
	assert.Equal(t, 3, res.State.Count)
	assert.Equal(t, 1, s.Search.Current, "selection survives an append")

	res, s = Highlight(s, "three")
	assert.Equal(t, 1, res.State.Count)
	assert.Equal(t, 0, s.Search.Current, "new term starts at first match")

	res, s = Highlight(s, "")
	assert.Equal(t, 0, res.State.Count)
	assert.Equal(t, -1, s.Search.Current)
	assert.Len(t, s.Display.Lines, 4, "search never alters the display")
}
