package logtail

import (
	"strings"

	"github.com/five82/deckhand/internal/search"
)

// Mode tells the renderer how to apply an Instruction.
type Mode int

const (
	// ModeReplace redraws the view from Instruction.Lines.
	ModeReplace Mode = iota
	// ModeAppend adds Instruction.Lines after what is already drawn.
	ModeAppend
)

func (m Mode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "replace"
}

// Placeholder is a non-content display state.
type Placeholder int

const (
	PlaceholderNone Placeholder = iota
	// PlaceholderWaiting follows a manual clear until new lines arrive.
	PlaceholderWaiting
	// PlaceholderNoLogs means the target produced no output at all.
	PlaceholderNoLogs
	// PlaceholderError is shown once after a failed fetch.
	PlaceholderError
)

// Display is the reconciled content currently on screen.
type Display struct {
	Lines []Line
	// ClearedAt is the last line visible when the user cleared the view.
	ClearedAt string
	Cleared   bool
	// NeedsReplace forces the next reconcile to redraw from scratch.
	NeedsReplace bool
	Placeholder  Placeholder
}

// Text joins the displayed lines as rendered, one per row.
func (d Display) Text() string {
	if len(d.Lines) == 0 {
		return ""
	}
	var b strings.Builder
	for i, line := range d.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Text)
	}
	return b.String()
}

// ViewState is everything one log view remembers between fetches. It is
// owned by a single view and only changed through Reconcile, Clear and
// Highlight, each of which returns the next state.
type ViewState struct {
	Target  string
	Window  int
	LastSeq uint64
	LastErr error
	Display Display
	Search  search.State
}

// NewViewState returns fresh state for a newly selected target.
func NewViewState(target string, window int) ViewState {
	if window <= 0 {
		window = DefaultWindow
	}
	return ViewState{
		Target:  target,
		Window:  window,
		Display: Display{NeedsReplace: true},
		Search:  search.Empty(),
	}
}

// Input is one fetch result plus the viewer context it arrived in.
type Input struct {
	// Seq orders snapshots; zero disables the ordering check.
	Seq          uint64
	Raw          string
	Err          error
	ForcedReload bool
	// WasAtBottom reports whether the viewer was scrolled to the newest
	// line before this update.
	WasAtBottom bool
}

// Instruction tells the renderer what to draw.
type Instruction struct {
	Mode        Mode
	Lines       []Line
	AutoScroll  bool
	Placeholder Placeholder
	Err         error
}

// Changed reports whether the instruction alters what is on screen.
func (in Instruction) Changed() bool {
	return in.Mode == ModeReplace || len(in.Lines) > 0
}

// Reconcile merges a new tail snapshot into s. Lines already displayed are
// never repeated; when continuity with the previous snapshot cannot be
// established the view is replaced rather than left with a silent gap.
func Reconcile(s ViewState, in Input) (Instruction, ViewState) {
	if in.Seq != 0 {
		if in.Seq <= s.LastSeq {
			return Instruction{Mode: ModeAppend}, s
		}
		s.LastSeq = in.Seq
	}

	if in.Err != nil {
		s.LastErr = in.Err
		s.Display = Display{NeedsReplace: true, Placeholder: PlaceholderError}
		return Instruction{Mode: ModeReplace, Placeholder: PlaceholderError, Err: in.Err}, s
	}
	s.LastErr = nil

	lines := Clean(in.Raw)
	if len(lines) == 0 {
		s.Display = Display{NeedsReplace: true, Placeholder: PlaceholderNoLogs}
		return Instruction{Mode: ModeReplace, Placeholder: PlaceholderNoLogs}, s
	}

	if in.ForcedReload {
		return replace(s, lines, in.WasAtBottom)
	}
	if s.Display.Cleared {
		return afterClear(s, lines, in.WasAtBottom)
	}
	if s.Display.NeedsReplace || len(s.Display.Lines) == 0 {
		return replace(s, lines, in.WasAtBottom)
	}

	last := s.Display.Lines[len(s.Display.Lines)-1].Text
	k := indexOf(lines, last)
	if k < 0 {
		// The overlap rotated out of the fetch window.
		return replace(s, lines, in.WasAtBottom)
	}
	fresh := lines[k+1:]
	if len(fresh) == 0 {
		return Instruction{Mode: ModeAppend, AutoScroll: in.WasAtBottom}, s
	}
	if len(fresh) >= s.Window {
		return replace(s, fresh, in.WasAtBottom)
	}
	s.Display.Lines = bound(append(s.Display.Lines, fresh...), s.Window)
	return Instruction{
		Mode:       ModeAppend,
		Lines:      append([]Line(nil), fresh...),
		AutoScroll: in.WasAtBottom,
	}, s
}

// Clear hides everything currently displayed. The view shows a waiting
// placeholder until lines newer than the last visible one arrive.
func Clear(s ViewState) (Instruction, ViewState) {
	if n := len(s.Display.Lines); n > 0 {
		s.Display = Display{
			ClearedAt:   s.Display.Lines[n-1].Text,
			Cleared:     true,
			Placeholder: PlaceholderWaiting,
		}
	} else {
		s.Display = Display{NeedsReplace: true, Placeholder: PlaceholderWaiting}
	}
	s.Search = search.State{Term: s.Search.Term, Current: -1}
	return Instruction{Mode: ModeReplace, Placeholder: PlaceholderWaiting}, s
}

// Highlight runs a search for term over the displayed text. The previous
// selection is kept when the term is unchanged.
func Highlight(s ViewState, term string) (search.Result, ViewState) {
	prior := -1
	if term == s.Search.Term {
		prior = s.Search.Current
	}
	res := search.Apply(s.Display.Text(), term, prior)
	s.Search = res.State
	return res, s
}

func replace(s ViewState, lines []Line, atBottom bool) (Instruction, ViewState) {
	s.Display = Display{Lines: bound(lines, s.Window)}
	return Instruction{
		Mode:       ModeReplace,
		Lines:      append([]Line(nil), s.Display.Lines...),
		AutoScroll: atBottom,
	}, s
}

func afterClear(s ViewState, lines []Line, atBottom bool) (Instruction, ViewState) {
	k := indexOf(lines, s.Display.ClearedAt)
	if k < 0 {
		// Boundary rotated out: everything in the snapshot is newer.
		return replace(s, lines, atBottom)
	}
	fresh := lines[k+1:]
	if len(fresh) == 0 {
		return Instruction{Mode: ModeAppend}, s
	}
	return replace(s, fresh, atBottom)
}

// indexOf returns the first position of text in lines, scanning forward.
func indexOf(lines []Line, text string) int {
	for i, line := range lines {
		if line.Text == text {
			return i
		}
	}
	return -1
}
