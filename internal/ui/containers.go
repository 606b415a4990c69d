package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/deckhand/internal/docker"
)

// sortedContainers returns running containers first, then by name.
func (m Model) sortedContainers() []docker.Container {
	items := make([]docker.Container, len(m.snapshot.Containers))
	copy(items, m.snapshot.Containers)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Running() != items[j].Running() {
			return items[i].Running()
		}
		return items[i].Name < items[j].Name
	})
	return items
}

// selectedContainer returns the container under the cursor.
func (m Model) selectedContainer() (docker.Container, bool) {
	items := m.sortedContainers()
	if m.selectedRow < 0 || m.selectedRow >= len(items) {
		return docker.Container{}, false
	}
	return items[m.selectedRow], true
}

// clampSelection keeps the cursor inside the list after a refresh.
func (m *Model) clampSelection() {
	n := len(m.snapshot.Containers)
	if m.selectedRow >= n {
		m.selectedRow = n - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

// handleContainersKey processes keyboard input for the container list.
func (m *Model) handleContainersKey(msg tea.KeyMsg) tea.Cmd {
	items := m.sortedContainers()
	count := len(items)
	if count == 0 {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	case key.Matches(msg, m.keys.Open):
		if c, ok := m.selectedContainer(); ok {
			return m.openLogs(c.ID, c.Name)
		}
	}
	return nil
}

// renderContainers renders the container list.
func (m Model) renderContainers() string {
	contentHeight := m.height - 2 // Account for header + cmdbar

	switch {
	case !m.snapshot.HasContainers && m.snapshot.LastError != nil:
		return m.renderEmpty("Docker unavailable: " + truncate(m.snapshot.LastError.Error(), max(m.width-24, 10)))
	case !m.snapshot.HasContainers:
		return m.renderEmpty("Connecting to docker...")
	case len(m.snapshot.Containers) == 0:
		return m.renderEmpty("No containers")
	}

	items := m.sortedContainers()
	width := m.width - 2 // -2 for borders
	bgColor := m.theme.FocusBg

	// Keep the cursor visible
	visible := max(contentHeight-2, 1)
	first := 0
	if m.selectedRow >= visible {
		first = m.selectedRow - visible + 1
	}

	lines := make([]string, 0, visible)
	for i := first; i < len(items) && i < first+visible; i++ {
		selected := i == m.selectedRow
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		content := m.formatContainerRow(items[i], width, rowBg, selected)
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(content))
	}

	title := m.containersTitle(items)
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, contentHeight, true)
}

func (m Model) containersTitle(items []docker.Container) string {
	running := 0
	for _, c := range items {
		if c.Running() {
			running++
		}
	}
	return fmt.Sprintf("Containers (%d running / %d)", running, len(items))
}

// formatContainerRow formats one row: "name · image  [state] status  created".
// When selected is true, uses SelectionText color for all text to ensure contrast.
func (m Model) formatContainerRow(c docker.Container, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	var nameStyle, imageStyle, sepStyle, statusStyle lipgloss.Style
	if selected {
		selText := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		nameStyle, imageStyle, sepStyle, statusStyle = selText, selText, selText, selText
	} else {
		nameStyle = styles.Text
		imageStyle = styles.MutedText
		sepStyle = styles.FaintText
		statusStyle = styles.FaintText
	}

	state := strings.ToLower(strings.TrimSpace(c.State))
	if state == "" {
		state = "unknown"
	}
	badge := styles.StatusStyle(state).Render(state)

	var created string
	if !c.CreatedAt.IsZero() && width >= LayoutCompactWidth {
		created = "created " + humanize.Time(c.CreatedAt)
	}

	// Fixed parts: badge + separators; the rest shares the remaining width.
	fixed := lipgloss.Width(badge) + 6 + len(created)
	free := max(width-fixed, 20)
	nameWidth := max(free*2/5, 10)
	imageWidth := max(free/4, 8)
	statusWidth := max(free-nameWidth-imageWidth, 8)

	row := bg.Render(truncate(c.Name, nameWidth), nameStyle.Bold(true)) +
		bg.Render(" · ", sepStyle) +
		bg.Render(truncateMiddle(c.Image, imageWidth), imageStyle) +
		bg.Space() + badge + bg.Space() +
		bg.Render(truncate(c.Status, statusWidth), statusStyle)
	if created != "" {
		row += bg.Spaces(2) + bg.Render(created, sepStyle)
	}
	return row
}
