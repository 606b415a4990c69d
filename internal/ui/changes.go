package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/deckhand/internal/git"
	"github.com/five82/deckhand/internal/logging"
)

const (
	commitLimit     = 30
	gitFetchTimeout = 15 * time.Second
)

// changesState holds the working tree status and recent commits.
type changesState struct {
	files    []git.ChangedFile
	commits  []git.Commit
	selected int
	loaded   bool
	loading  bool
	err      error
	loadedAt time.Time
}

type changesLoadedMsg struct {
	files   []git.ChangedFile
	commits []git.Commit
	err     error
	at      time.Time
}

// entries is the number of selectable rows: files first, then commits.
func (c changesState) entries() int {
	return len(c.files) + len(c.commits)
}

// loadChanges reads git status and the recent log.
func (m *Model) loadChanges() tea.Cmd {
	if m.git == nil {
		m.changes.loaded = true
		m.changes.err = errors.New("no repository configured")
		return nil
	}
	m.changes.loading = true
	client := m.git
	parent := m.ctx

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, gitFetchTimeout)
		defer cancel()

		files, err := client.ChangedFiles(ctx)
		if err != nil {
			return changesLoadedMsg{err: err, at: time.Now()}
		}
		// A repository without commits has no log; the status is still useful.
		commits, cerr := client.Commits(ctx, commitLimit)
		if cerr != nil {
			logger := logging.WithComponent("changes")
			logger.Debug().Err(cerr).Msg("read commit log")
		}
		return changesLoadedMsg{files: files, commits: commits, at: time.Now()}
	}
}

func (m *Model) handleChangesLoaded(msg changesLoadedMsg) {
	m.changes.loading = false
	m.changes.loaded = true
	m.changes.err = msg.err
	m.changes.files = msg.files
	m.changes.commits = msg.commits
	m.changes.loadedAt = msg.at
	if n := m.changes.entries(); m.changes.selected >= n {
		m.changes.selected = max(n-1, 0)
	}
}

// handleChangesKey processes keyboard input for the changes view.
func (m *Model) handleChangesKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Refresh) {
		if m.changes.loading {
			return nil
		}
		return m.loadChanges()
	}
	if key.Matches(msg, m.keys.Escape) {
		return m.setView(ViewContainers)
	}

	count := m.changes.entries()
	if count == 0 {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.changes.selected < count-1 {
			m.changes.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.changes.selected > 0 {
			m.changes.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.changes.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.changes.selected = count - 1
	case key.Matches(msg, m.keys.Open):
		return m.openSelectedChange()
	}
	return nil
}

// openSelectedChange loads the diff for the selected file or commit.
func (m *Model) openSelectedChange() tea.Cmd {
	i := m.changes.selected
	client := m.git
	if client == nil {
		return nil
	}
	if i < len(m.changes.files) {
		file := m.changes.files[i]
		return m.loadDiff(file.Path, func(ctx context.Context) (string, error) {
			return client.FileDiff(ctx, file)
		})
	}
	i -= len(m.changes.files)
	if i < len(m.changes.commits) {
		c := m.changes.commits[i]
		return m.loadDiff(c.Short+" "+c.Subject, func(ctx context.Context) (string, error) {
			return client.CommitDiff(ctx, c.Hash)
		})
	}
	return nil
}

// renderChanges renders the changed files and commit list.
func (m Model) renderChanges() string {
	contentHeight := m.height - 2 // Account for header + cmdbar

	switch {
	case !m.changes.loaded:
		return m.renderEmpty("Reading repository...")
	case m.changes.err != nil:
		return m.renderEmpty("git: " + truncate(m.changes.err.Error(), max(m.width-10, 10)))
	}

	styles := m.theme.Styles()
	width := m.width - 2
	bgColor := m.theme.FocusBg
	bg := NewBgStyle(bgColor)

	var rows []string
	header := func(text string) {
		rows = append(rows, bg.FillLine(bg.Render(text, styles.AccentText.Bold(true)), width))
	}
	row := func(idx int, render func(bg BgStyle, selected bool) string) {
		selected := idx == m.changes.selected
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		rows = append(rows, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(render(NewBgStyle(rowBg), selected)))
	}

	header(fmt.Sprintf("Working tree (%d)", len(m.changes.files)))
	if len(m.changes.files) == 0 {
		rows = append(rows, bg.FillLine(bg.Render("  clean", styles.MutedText), width))
	}
	for i, f := range m.changes.files {
		row(i, func(bg BgStyle, selected bool) string {
			return m.formatFileRow(f, width, bg, selected)
		})
	}

	rows = append(rows, bg.FillLine("", width))
	header(fmt.Sprintf("Recent commits (%d)", len(m.changes.commits)))
	for i, c := range m.changes.commits {
		row(len(m.changes.files)+i, func(bg BgStyle, selected bool) string {
			return m.formatCommitRow(c, width, bg, selected)
		})
	}

	// Keep the cursor visible: the cursor row index is offset by the headers.
	visible := max(contentHeight-2, 1)
	cursor := m.changes.selected + 1
	if m.changes.selected >= len(m.changes.files) {
		cursor += 2
		if len(m.changes.files) == 0 {
			cursor++
		}
	}
	first := 0
	if cursor >= visible {
		first = cursor - visible + 1
	}
	rows = rows[min(first, len(rows)):]

	title := "Changes"
	if !m.changes.loadedAt.IsZero() {
		title += " · read " + humanize.Time(m.changes.loadedAt)
	}
	return m.renderTitledBox(title, strings.Join(rows, "\n"), m.width, contentHeight, true)
}

func (m Model) formatFileRow(f git.ChangedFile, width int, bg BgStyle, selected bool) string {
	styles := m.theme.Styles()
	statusStyle := styles.WarningText
	switch {
	case f.Untracked():
		statusStyle = styles.InfoText
	case f.Index == 'A':
		statusStyle = styles.SuccessText
	case f.Index == 'D' || f.Worktree == 'D':
		statusStyle = styles.DangerText
	}
	pathStyle := styles.Text
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		statusStyle, pathStyle = sel, sel
	}

	path := f.Path
	if f.OldPath != "" {
		path = f.OldPath + " → " + f.Path
	}
	return bg.Spaces(2) + bg.Render(f.Status(), statusStyle.Bold(true)) + bg.Space() +
		bg.Render(truncateMiddle(path, max(width-6, 10)), pathStyle)
}

func (m Model) formatCommitRow(c git.Commit, width int, bg BgStyle, selected bool) string {
	styles := m.theme.Styles()
	hashStyle, subjectStyle, metaStyle := styles.AccentText, styles.Text, styles.FaintText
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		hashStyle, subjectStyle, metaStyle = sel, sel, sel
	}

	meta := c.Author
	if !c.When.IsZero() {
		meta += ", " + humanize.Time(c.When)
	}
	subjectWidth := max(width-len(c.Short)-len(meta)-8, 10)
	return bg.Spaces(2) + bg.Render(c.Short, hashStyle) + bg.Space() +
		bg.Render(truncate(c.Subject, subjectWidth), subjectStyle) + bg.Spaces(2) +
		bg.Render(meta, metaStyle)
}
