// Package search finds and highlights literal, case-insensitive matches in
// rendered text. It knows nothing about where the text came from; callers
// re-run Apply whenever the text or the term changes.
package search

import (
	"regexp"
	"strings"
)

// State is the navigable selection over the current set of matches.
// Current is -1 when Term is empty or Count is zero, otherwise it satisfies
// 0 <= Current < Count.
type State struct {
	Term    string
	Count   int
	Current int
}

// Empty returns a State with no term and no selection.
func Empty() State {
	return State{Current: -1}
}

// Active reports whether a term is set.
func (s State) Active() bool {
	return s.Term != ""
}

// Match is one occurrence of the term. Start and End are byte offsets into
// the searched text; Index is the zero-based position in document order.
type Match struct {
	Index int
	Start int
	End   int
}

// Result is the outcome of a single Apply call.
type Result struct {
	Text    string
	Matches []Match
	State   State
}

// Marker wraps a matched substring for display.
type Marker func(m Match, current bool, s string) string

// Apply finds every non-overlapping occurrence of term in text. prior is the
// previously selected match index, or a negative value when there was none.
func Apply(text, term string, prior int) Result {
	res := Result{Text: text, State: State{Term: term, Current: -1}}
	if term == "" || text == "" {
		return res
	}

	re := compile(term)
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return res
	}

	res.Matches = make([]Match, len(locs))
	for i, loc := range locs {
		res.Matches[i] = Match{Index: i, Start: loc[0], End: loc[1]}
	}
	res.State.Count = len(locs)
	res.State.Current = selectIndex(prior, res.State.Count)
	return res
}

// Highlight returns Text with every match passed through mark.
func (r Result) Highlight(mark Marker) string {
	if len(r.Matches) == 0 || mark == nil {
		return r.Text
	}
	var b strings.Builder
	b.Grow(len(r.Text))
	last := 0
	for _, m := range r.Matches {
		b.WriteString(r.Text[last:m.Start])
		b.WriteString(mark(m, m.Index == r.State.Current, r.Text[m.Start:m.End]))
		last = m.End
	}
	b.WriteString(r.Text[last:])
	return b.String()
}

// Current returns the selected match, if any.
func (r Result) Current() (Match, bool) {
	if r.State.Current < 0 || r.State.Current >= len(r.Matches) {
		return Match{}, false
	}
	return r.Matches[r.State.Current], true
}

// LineOf returns the zero-based line number containing the match.
func (r Result) LineOf(m Match) int {
	if m.Start > len(r.Text) {
		return strings.Count(r.Text, "\n")
	}
	return strings.Count(r.Text[:m.Start], "\n")
}

// Select returns a copy of r with the selection taken from s, provided s
// still refers to the same term and match count.
func (r Result) Select(s State) Result {
	if s.Term == r.State.Term && s.Count == r.State.Count {
		r.State.Current = s.Current
	}
	return r
}

// Next advances the selection, wrapping at the end.
func Next(s State) State {
	if s.Count == 0 {
		return s
	}
	s.Current = (s.Current + 1) % s.Count
	return s
}

// Prev moves the selection back, wrapping at the start.
func Prev(s State) State {
	if s.Count == 0 {
		return s
	}
	s.Current = (s.Current - 1 + s.Count) % s.Count
	return s
}

// Clear drops the term and any selection.
func Clear(State) State {
	return Empty()
}

func selectIndex(prior, count int) int {
	switch {
	case count == 0:
		return -1
	case prior < 0:
		return 0
	case prior >= count:
		return count - 1
	default:
		return prior
	}
}

func compile(term string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
}
