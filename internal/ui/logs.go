package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/zeebo/xxh3"

	"github.com/five82/deckhand/internal/logging"
	"github.com/five82/deckhand/internal/logtail"
	"github.com/five82/deckhand/internal/search"
)

// Log refresh constants
const (
	defaultLogPoll  = 2 * time.Second
	logFetchTimeout = 10 * time.Second
)

// logState holds all log-related state.
type logState struct {
	view   logtail.ViewState
	label  string // display name of the target
	poll   pollTask
	seq    uint64
	follow bool

	lastFetch time.Time

	// Search
	searching   bool
	searchInput textinput.Model
	result      search.Result

	// contentKey hashes everything the rendered content depends on; zero
	// forces the next render.
	contentKey uint64
}

// Log messages

type logTickMsg struct {
	gen uint64
}

type logFetchedMsg struct {
	gen    uint64
	seq    uint64
	target string
	raw    string
	err    error
	forced bool
	at     time.Time
}

// initLogState initializes the log state.
func (m *Model) initLogState() {
	ti := textinput.New()
	ti.Placeholder = "Search logs..."
	ti.Prompt = "/"
	ti.CharLimit = 100

	m.logState = logState{
		view:   logtail.NewViewState("", m.window),
		follow: m.follow,
	}
	m.logState.searchInput = ti
}

// openLogs selects target for the log view and switches to it. Selecting a
// different target starts from fresh state.
func (m *Model) openLogs(target, label string) tea.Cmd {
	if target != m.logState.view.Target {
		m.logState.poll.stop()
		m.logState.view = logtail.NewViewState(target, m.window)
		m.logState.label = label
		m.logState.follow = m.follow
		m.logState.result = search.Result{}
		m.logState.lastFetch = time.Time{}
		m.logState.contentKey = 0
		m.updateLogViewport()
	}
	if m.currentView == ViewLogs {
		return m.startLogPolling(false)
	}
	return m.setView(ViewLogs)
}

// startLogPolling begins a new polling cycle and fetches immediately.
func (m *Model) startLogPolling(forced bool) tea.Cmd {
	if m.logs == nil || m.logState.view.Target == "" {
		m.logState.poll.stop()
		return nil
	}
	gen := m.logState.poll.start()
	m.logState.poll.begin(gen)
	return m.fetchLogsCmd(gen, forced)
}

func (m *Model) stopLogPolling() {
	m.logState.poll.stop()
}

// fetchLogsCmd fetches the tail of the current target.
func (m *Model) fetchLogsCmd(gen uint64, forced bool) tea.Cmd {
	m.logState.seq++
	seq := m.logState.seq
	target := m.logState.view.Target
	window := m.logState.view.Window
	fetcher := m.logs
	parent := m.ctx

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, logFetchTimeout)
		defer cancel()

		raw, err := fetcher.FetchTail(ctx, target, window)
		return logFetchedMsg{
			gen:    gen,
			seq:    seq,
			target: target,
			raw:    raw,
			err:    err,
			forced: forced,
			at:     time.Now(),
		}
	}
}

func logTickCmd(gen uint64, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return logTickMsg{gen: gen}
	})
}

// handleLogTick fetches on a tick unless it is stale or a fetch is running.
func (m *Model) handleLogTick(msg logTickMsg) tea.Cmd {
	if !m.logState.poll.begin(msg.gen) {
		return nil
	}
	return m.fetchLogsCmd(msg.gen, false)
}

// handleLogFetched reconciles a fetch result into the view and schedules
// the next tick.
func (m *Model) handleLogFetched(msg logFetchedMsg) tea.Cmd {
	if !m.logState.poll.finish(msg.gen) {
		return nil
	}

	if msg.err != nil {
		logger := logging.WithComponent("logs")
		logger.Debug().Err(msg.err).Str("target", msg.target).Msg("log fetch failed")
	}

	wasAtBottom := m.logState.follow && m.logViewport.AtBottom()
	instr, next := logtail.Reconcile(m.logState.view, logtail.Input{
		Seq:          msg.seq,
		Raw:          msg.raw,
		Err:          msg.err,
		ForcedReload: msg.forced,
		WasAtBottom:  wasAtBottom,
	})
	m.logState.view = next
	m.logState.lastFetch = msg.at
	m.applyLogInstruction(instr)

	return logTickCmd(msg.gen, m.logPoll)
}

// applyLogInstruction redraws the viewport when the instruction changed
// what is on screen.
func (m *Model) applyLogInstruction(instr logtail.Instruction) {
	if !instr.Changed() {
		return
	}
	m.updateLogViewport()
	if instr.AutoScroll {
		m.logViewport.GotoBottom()
	}
}

// updateLogViewport re-runs the search over the displayed text and sets
// new viewport content when anything it depends on changed.
func (m *Model) updateLogViewport() {
	res, view := logtail.Highlight(m.logState.view, m.logState.view.Search.Term)
	m.logState.view = view
	m.logState.result = res

	if m.logViewport.Width == 0 {
		return
	}

	k := m.logContentKey()
	if k == m.logState.contentKey {
		return
	}
	m.logState.contentKey = k
	m.logViewport.SetContent(m.renderLogContent())
}

// logContentKey hashes the inputs of renderLogContent.
func (m *Model) logContentKey() uint64 {
	var b strings.Builder
	b.WriteString(m.theme.Name)
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(m.logViewport.Width))
	b.WriteByte(0)
	b.WriteString(m.logState.view.Target)
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(int(m.logState.view.Display.Placeholder)))
	b.WriteByte(0)
	if err := m.logState.view.LastErr; err != nil {
		b.WriteString(err.Error())
	}
	b.WriteByte(0)
	s := m.logState.view.Search
	fmt.Fprintf(&b, "%s\x00%d\x00%d\x00", s.Term, s.Count, s.Current)
	b.WriteString(m.logState.result.Text)
	// Never zero, so a cleared key always forces a render.
	return xxh3.HashString(b.String()) | 1
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	// Logs view is always focused when shown, so use FocusBg
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	contentHeight := m.height - 3 // Account for header + cmdbar + status bar below

	box := m.renderTitledBox(m.logTitle(), m.logViewport.View(), m.width, contentHeight, true)
	return box + "\n" + m.renderLogStatus(styles, bg)
}

// logTitle returns the plain text title for the log view.
func (m Model) logTitle() string {
	if m.logState.view.Target == "" {
		return "Logs"
	}
	label := m.logState.label
	if label == "" {
		label = m.logState.view.Target
	}
	title := "Logs: " + truncateMiddle(label, max(m.width/2, 12))
	if m.logState.view.Display.Cleared {
		title += " (cleared)"
	}
	return title
}

// renderLogStatus renders the log status bar.
func (m Model) renderLogStatus(styles Styles, bg BgStyle) string {
	if m.logState.searching {
		return m.logState.searchInput.View()
	}

	s := m.logState.view.Search
	if s.Active() && s.Count > 0 {
		return bg.Render("/"+s.Term, styles.AccentText) +
			bg.Render(" - ", styles.FaintText) +
			bg.Render(fmt.Sprintf("%d/%d", s.Current+1, s.Count), styles.WarningText) +
			bg.Render(" - Press ", styles.FaintText) +
			bg.Render("n", styles.AccentText) +
			bg.Render(" for next, ", styles.FaintText) +
			bg.Render("N", styles.AccentText) +
			bg.Render(" for previous, ", styles.FaintText) +
			bg.Render("Esc", styles.AccentText) +
			bg.Render(" to clear", styles.FaintText)
	}
	if s.Active() {
		return bg.Render("Pattern not found: "+s.Term, styles.DangerText)
	}

	follow := "off"
	if m.logState.follow {
		follow = "on"
	}
	lines := len(m.logState.view.Display.Lines)
	parts := []string{
		bg.Render(fmt.Sprintf("%d lines", lines), styles.FaintText),
		bg.Render("follow "+follow, styles.FaintText),
	}
	if !m.logState.lastFetch.IsZero() {
		parts = append(parts, bg.Render("fetched "+humanize.Time(m.logState.lastFetch), styles.MutedText))
	}
	if err := m.logState.view.LastErr; err != nil {
		parts = append(parts, bg.Render(truncate(err.Error(), 60), styles.DangerText))
	}

	return bg.Join(parts, " • ")
}

// renderLogContent renders the displayed lines with severity colors and
// search highlights.
func (m Model) renderLogContent() string {
	// Logs view is always focused when shown, so use FocusBg
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width
	view := m.logState.view

	if view.Target == "" {
		return bg.FillLine(bg.Render("Select a container to view logs", styles.MutedText), width)
	}

	switch view.Display.Placeholder {
	case logtail.PlaceholderWaiting:
		return bg.FillLine(bg.Render("Waiting for new log lines...", styles.MutedText), width)
	case logtail.PlaceholderNoLogs:
		return bg.FillLine(bg.Render("No logs available", styles.MutedText), width)
	case logtail.PlaceholderError:
		msg := "Failed to fetch logs"
		if view.LastErr != nil {
			msg += ": " + view.LastErr.Error()
		}
		return bg.FillLine(bg.Render(truncate(msg, width), styles.DangerText), width)
	}

	if len(view.Display.Lines) == 0 {
		return bg.FillLine(bg.Render("Loading...", styles.MutedText), width)
	}

	res := m.logState.result
	matches := res.Matches
	mi := 0
	offset := 0

	var b strings.Builder
	for i, line := range view.Display.Lines {
		start := offset
		end := start + len(line.Text)

		var lineMatches []search.Match
		for mi < len(matches) && matches[mi].Start < end {
			if matches[mi].Start >= start {
				lineMatches = append(lineMatches, matches[mi])
			}
			mi++
		}

		numStyle := styles.FaintText
		if len(lineMatches) > 0 {
			numStyle = styles.AccentText
		}
		lineContent := bg.Render(fmt.Sprintf("%4d │ ", i+1), numStyle) +
			m.renderLogLine(line, start, lineMatches, res.State.Current, styles, bg)

		b.WriteString(bg.FillLine(ansi.Truncate(lineContent, width, ""), width))
		if i < len(view.Display.Lines)-1 {
			b.WriteString("\n")
		}
		offset = end + 1
	}

	return b.String()
}

// renderLogLine colors one line by severity and marks the matches in it.
// offset is the byte position of the line within the searched text.
func (m Model) renderLogLine(line logtail.Line, offset int, matches []search.Match, current int, styles Styles, bg BgStyle) string {
	base := m.severityStyle(line.Severity, styles)
	if len(matches) == 0 {
		return bg.Render(line.Text, base)
	}

	passive := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(m.theme.Warning))
	active := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(m.theme.MatchBg)).
		Bold(true)

	var b strings.Builder
	last := 0
	for _, mt := range matches {
		s, e := mt.Start-offset, min(mt.End-offset, len(line.Text))
		b.WriteString(bg.Render(line.Text[last:s], base))
		if mt.Index == current {
			b.WriteString(active.Render(line.Text[s:e]))
		} else {
			b.WriteString(passive.Render(line.Text[s:e]))
		}
		last = e
	}
	b.WriteString(bg.Render(line.Text[last:], base))
	return b.String()
}

// severityStyle returns the style for a log line severity.
func (m Model) severityStyle(sev logtail.Severity, styles Styles) lipgloss.Style {
	switch sev {
	case logtail.SeverityError:
		return styles.DangerText
	case logtail.SeverityWarn:
		return styles.WarningText
	default:
		return styles.Text
	}
}

// handleLogsKey processes keyboard input for logs view.
func (m *Model) handleLogsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		m.follow = m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
		}
		m.savePrefs()
		return nil

	case key.Matches(msg, m.keys.Refresh):
		return m.startLogPolling(true)

	case key.Matches(msg, m.keys.ClearLogs):
		instr, view := logtail.Clear(m.logState.view)
		m.logState.view = view
		m.applyLogInstruction(instr)
		return nil

	case key.Matches(msg, m.keys.Search):
		m.logState.searching = true
		m.logState.searchInput.SetValue(m.logState.view.Search.Term)
		m.logState.searchInput.CursorEnd()
		return m.logState.searchInput.Focus()

	case key.Matches(msg, m.keys.NextMatch):
		m.stepSearch(search.Next)
		return nil

	case key.Matches(msg, m.keys.PrevMatch):
		m.stepSearch(search.Prev)
		return nil

	case key.Matches(msg, m.keys.Escape):
		// Clear search if active
		if m.logState.view.Search.Active() {
			m.logState.view.Search = search.Clear(m.logState.view.Search)
			m.updateLogViewport()
			return nil
		}
		return m.setView(ViewContainers)

	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logState.follow = false
		return nil

	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logState.follow = true
		return nil

	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.logState.follow = false
		return nil

	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
		m.logState.follow = false
		return nil

	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
		m.logState.follow = false
		return nil

	case key.Matches(msg, m.keys.HalfPageUp):
		m.logViewport.HalfPageUp()
		m.logState.follow = false
		return nil

	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
		m.logState.follow = false
		return nil

	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.PageUp()
		m.logState.follow = false
		return nil
	}

	return nil
}

// handleLogSearchInput handles keyboard input during log search.
func (m *Model) handleLogSearchInput(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		term := m.logState.searchInput.Value()
		m.logState.searching = false
		m.logState.searchInput.Blur()
		m.setSearchTerm(term)
		return nil

	case key.Matches(msg, m.keys.Escape):
		// Cancel the prompt, keeping any active search
		m.logState.searching = false
		m.logState.searchInput.Blur()
		return nil
	}

	// Let the text input handle the key
	var cmd tea.Cmd
	m.logState.searchInput, cmd = m.logState.searchInput.Update(msg)
	return cmd
}

// setSearchTerm applies term to the displayed text; an empty term clears
// the search.
func (m *Model) setSearchTerm(term string) {
	if term == "" {
		m.logState.view.Search = search.Clear(m.logState.view.Search)
		m.updateLogViewport()
		return
	}
	res, view := logtail.Highlight(m.logState.view, term)
	m.logState.view = view
	m.logState.result = res
	m.updateLogViewport()
	m.scrollToSearchMatch()
}

func (m *Model) stepSearch(step func(search.State) search.State) {
	if m.logState.view.Search.Count == 0 {
		return
	}
	m.logState.view.Search = step(m.logState.view.Search)
	m.updateLogViewport()
	m.scrollToSearchMatch()
}

// scrollToSearchMatch centers the viewport on the current match.
func (m *Model) scrollToSearchMatch() {
	match, ok := m.logState.result.Current()
	if !ok {
		return
	}
	m.logState.follow = false

	targetLine := m.logState.result.LineOf(match)
	scrollTo := max(targetLine-m.logViewport.Height/2, 0)
	m.logViewport.SetYOffset(scrollTo)
}
