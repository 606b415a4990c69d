package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/deckhand/internal/diff"
)

// diffSource fetches raw diff text.
type diffSource func(ctx context.Context) (string, error)

// diffState holds the parsed diff and its card layout.
type diffState struct {
	title     string
	source    diffSource
	files     []diff.FileDiff
	collapsed map[int]bool
	focused   int
	loading   bool
	err       error
	seq       uint64

	// offsets holds the first content line of each card.
	offsets  []int
	rendered bool
}

type diffLoadedMsg struct {
	seq   uint64
	title string
	raw   string
	err   error
}

func (m *Model) initDiffState() {
	m.diffState = diffState{collapsed: make(map[int]bool)}
}

// loadDiff switches to the diff view and fetches a new diff from source.
func (m *Model) loadDiff(title string, source diffSource) tea.Cmd {
	m.diffState.seq++
	m.diffState.title = title
	m.diffState.source = source
	m.diffState.loading = true
	m.diffState.err = nil
	m.diffState.rendered = false
	cmd := m.fetchDiffCmd()
	if view := m.setView(ViewDiff); view != nil {
		return tea.Batch(cmd, view)
	}
	return cmd
}

func (m *Model) fetchDiffCmd() tea.Cmd {
	seq := m.diffState.seq
	title := m.diffState.title
	source := m.diffState.source
	parent := m.ctx
	if source == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, gitFetchTimeout)
		defer cancel()
		raw, err := source(ctx)
		return diffLoadedMsg{seq: seq, title: title, raw: raw, err: err}
	}
}

// handleDiffLoaded parses the result of the latest load; older loads are
// dropped.
func (m *Model) handleDiffLoaded(msg diffLoadedMsg) {
	if msg.seq != m.diffState.seq {
		return
	}
	m.diffState.loading = false
	m.diffState.err = msg.err
	m.diffState.files = nil
	if msg.err == nil {
		m.diffState.files = diff.Parse(msg.raw)
	}
	m.diffState.collapsed = make(map[int]bool)
	for i, f := range m.diffState.files {
		if f.Binary {
			m.diffState.collapsed[i] = true
		}
	}
	m.diffState.focused = 0
	m.diffState.rendered = false
	m.updateDiffViewport()
	m.diffViewport.GotoTop()
}

// handleDiffKey processes keyboard input for the diff view.
func (m *Model) handleDiffKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		return m.setView(ViewChanges)

	case key.Matches(msg, m.keys.Refresh):
		if m.diffState.source == nil {
			return nil
		}
		m.diffState.seq++
		m.diffState.loading = true
		return m.fetchDiffCmd()

	case key.Matches(msg, m.keys.ToggleCard):
		if len(m.diffState.files) > 0 {
			i := m.diffState.focused
			m.diffState.collapsed[i] = !m.diffState.collapsed[i]
			m.diffState.rendered = false
			m.updateDiffViewport()
			m.scrollToCard(i)
		}
		return nil

	case key.Matches(msg, m.keys.ToggleAll):
		m.toggleAllCards()
		return nil

	case key.Matches(msg, m.keys.NextFile):
		m.focusCard(m.diffState.focused + 1)
		return nil

	case key.Matches(msg, m.keys.PrevFile):
		m.focusCard(m.diffState.focused - 1)
		return nil

	case key.Matches(msg, m.keys.Top):
		m.diffViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.diffViewport.GotoBottom()
	case key.Matches(msg, m.keys.Down):
		m.diffViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.diffViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.diffViewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.diffViewport.HalfPageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.diffViewport.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.diffViewport.PageUp()
	}
	m.syncFocusToScroll()
	return nil
}

// toggleAllCards collapses every card when any is expanded, otherwise
// expands them all.
func (m *Model) toggleAllCards() {
	anyExpanded := false
	for i := range m.diffState.files {
		if !m.diffState.collapsed[i] {
			anyExpanded = true
			break
		}
	}
	for i := range m.diffState.files {
		m.diffState.collapsed[i] = anyExpanded
	}
	m.diffState.rendered = false
	m.updateDiffViewport()
	m.scrollToCard(m.diffState.focused)
}

func (m *Model) focusCard(i int) {
	n := len(m.diffState.files)
	if n == 0 {
		return
	}
	i = min(max(i, 0), n-1)
	if i != m.diffState.focused {
		m.diffState.focused = i
		m.diffState.rendered = false
		m.updateDiffViewport()
	}
	m.scrollToCard(i)
}

func (m *Model) scrollToCard(i int) {
	if i >= 0 && i < len(m.diffState.offsets) {
		m.diffViewport.SetYOffset(m.diffState.offsets[i])
	}
}

// syncFocusToScroll focuses the last card whose top is above the viewport top.
func (m *Model) syncFocusToScroll() {
	y := m.diffViewport.YOffset
	focused := 0
	for i, off := range m.diffState.offsets {
		if off <= y {
			focused = i
		}
	}
	if focused != m.diffState.focused && len(m.diffState.files) > 0 {
		m.diffState.focused = focused
		m.diffState.rendered = false
		offset := m.diffViewport.YOffset
		m.updateDiffViewport()
		m.diffViewport.SetYOffset(offset)
	}
}

// updateDiffViewport re-renders the cards when the layout changed.
func (m *Model) updateDiffViewport() {
	if m.diffViewport.Width == 0 || m.diffState.rendered {
		return
	}
	content, offsets := m.renderDiffCards(m.diffViewport.Width)
	m.diffState.offsets = offsets
	m.diffState.rendered = true
	m.diffViewport.SetContent(content)
}

// renderDiff renders the diff view.
func (m Model) renderDiff() string {
	contentHeight := m.height - 3 // header + cmdbar + summary line
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	title := "Diff"
	if m.diffState.title != "" {
		title += ": " + m.diffState.title
	}
	box := m.renderTitledBox(title, m.diffViewport.View(), m.width, contentHeight, true)
	return box + "\n" + m.renderDiffSummary(styles, bg)
}

func (m Model) renderDiffSummary(styles Styles, bg BgStyle) string {
	if m.diffState.loading {
		return bg.Render("Loading diff...", styles.MutedText)
	}
	if m.diffState.err != nil {
		return bg.Render(truncate(m.diffState.err.Error(), m.width), styles.DangerText)
	}
	added, removed := 0, 0
	for _, f := range m.diffState.files {
		a, r := f.Stats()
		added += a
		removed += r
	}
	parts := []string{
		bg.Render(fmt.Sprintf("%d files", len(m.diffState.files)), styles.FaintText),
		bg.Render(fmt.Sprintf("+%d", added), styles.SuccessText) + bg.Space() +
			bg.Render(fmt.Sprintf("-%d", removed), styles.DangerText),
	}
	if n := len(m.diffState.files); n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("file %d/%d", m.diffState.focused+1, n), styles.MutedText))
	}
	return bg.Join(parts, " • ")
}

// renderDiffCards renders one card per file and returns the first line of
// each card.
func (m Model) renderDiffCards(width int) (string, []int) {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	switch {
	case m.diffState.source == nil:
		return bg.FillLine(bg.Render("Select a file or commit in the Changes view", styles.MutedText), width), nil
	case m.diffState.err != nil:
		return bg.FillLine(bg.Render("Failed to load diff", styles.DangerText), width), nil
	case len(m.diffState.files) == 0 && !m.diffState.loading:
		return bg.FillLine(bg.Render("No differences", styles.MutedText), width), nil
	}

	var lines []string
	offsets := make([]int, 0, len(m.diffState.files))
	for i, f := range m.diffState.files {
		offsets = append(offsets, len(lines))
		card := m.renderDiffCard(f, width, i == m.diffState.focused, m.diffState.collapsed[i])
		lines = append(lines, strings.Split(card, "\n")...)
	}
	return strings.Join(lines, "\n"), offsets
}

// renderDiffCard renders a file header and, unless collapsed, its lines.
func (m Model) renderDiffCard(f diff.FileDiff, width int, focused, collapsed bool) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	headerBg := m.theme.SurfaceAlt
	if focused {
		headerBg = m.theme.SelectionBg
	}
	hbg := NewBgStyle(headerBg)
	hstyles := styles.WithBackground(headerBg)

	marker := "▾"
	if collapsed {
		marker = "▸"
	}
	added, removed := f.Stats()
	stats := hbg.Render(fmt.Sprintf("+%d", added), hstyles.SuccessText) + hbg.Space() +
		hbg.Render(fmt.Sprintf("-%d", removed), hstyles.DangerText)
	kind := hbg.Render("["+f.Kind.String()+"]", hstyles.MutedText)
	if f.Binary {
		kind += hbg.Space() + hbg.Render("[binary]", hstyles.WarningText)
	}
	titleWidth := max(width-lipgloss.Width(stats)-lipgloss.Width(kind)-6, 10)
	titleStyle := hstyles.Text.Bold(true)
	if focused {
		titleStyle = titleStyle.Foreground(lipgloss.Color(m.theme.SelectionText))
	}
	header := hbg.Render(marker, hstyles.AccentText) + hbg.Space() +
		hbg.Render(truncateMiddle(f.Title(), titleWidth), titleStyle) + hbg.Spaces(2) +
		stats + hbg.Space() + kind

	out := []string{hbg.FillLine(header, width)}
	if collapsed {
		return strings.Join(out, "\n")
	}

	if f.Binary {
		out = append(out, bg.FillLine(bg.Render("  Binary file not shown", styles.MutedText), width))
	}
	for _, l := range f.Lines {
		if l.Kind == diff.LineHeader {
			continue
		}
		text := ansi.Truncate(expandTabs(l.Text), width, "…")
		out = append(out, bg.FillLine(bg.Render(text, m.diffLineStyle(l.Kind, styles)), width))
	}
	out = append(out, bg.FillLine("", width))
	return strings.Join(out, "\n")
}

// diffLineStyle returns the style for a diff line kind.
func (m Model) diffLineStyle(kind diff.LineKind, styles Styles) lipgloss.Style {
	switch kind {
	case diff.LineAdded:
		return styles.SuccessText
	case diff.LineRemoved:
		return styles.DangerText
	case diff.LineHunkHeader:
		return styles.InfoText
	case diff.LineMetadata:
		return styles.FaintText
	default:
		return styles.Text
	}
}
