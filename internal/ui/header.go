package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	sep := bg.Spaces(2)

	parts := []string{bg.Render("deckhand", styles.Logo)}

	switch {
	case m.snapshot.IsOffline() || (!m.snapshot.HasContainers && m.snapshot.LastError != nil):
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render("DOCKER OFFLINE", styles.DangerText.Bold(true)),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
		)
		if err := m.snapshot.LastError; err != nil {
			parts = append(parts, bg.Render(truncate(err.Error(), maxErr), styles.MutedText))
		}
	case !m.snapshot.HasContainers:
		parts = append(parts, bg.Render("Connecting to docker...", styles.WarningText.Bold(true)))
	default:
		running := 0
		for _, c := range m.snapshot.Containers {
			if c.Running() {
				running++
			}
		}
		runningStyle := styles.MutedText
		if running > 0 {
			runningStyle = styles.SuccessText
		}
		parts = append(parts,
			bg.Render("●", runningStyle)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", running), styles.Text)+bg.Render("/", styles.FaintText)+
				bg.Render(fmt.Sprintf("%d", len(m.snapshot.Containers)), styles.Text)+bg.Space()+
				bg.Render("running", styles.MutedText),
		)
		// A single failure after a good refresh is shown inline
		if m.snapshot.LastError != nil {
			parts = append(parts, bg.Render("!", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(truncate(m.snapshot.LastError.Error(), 40), styles.WarningText))
		}
	}

	if m.repoDir != "" && !compact {
		parts = append(parts,
			bg.Render("repo", styles.FaintText)+bg.Space()+
				bg.Render(truncateMiddle(m.repoDir, 40), styles.MutedText))
	}

	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, bg.Render("updated "+humanize.Time(m.snapshot.LastUpdated), styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"/", "Search"},
			{"n/N", "Next/Prev"},
			{"c", "Clear"},
			{"r", "Reload"},
			{"esc", "Back"},
			{"?", "More"},
		}
	case ViewChanges:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Diff"},
			{"r", "Refresh"},
			{"Tab", "Views"},
			{"?", "More"},
		}
	case ViewDiff:
		commands = []cmd{
			{"Space", "Fold"},
			{"z", "Fold all"},
			{"]/[", "Next/Prev file"},
			{"r", "Reload"},
			{"esc", "Back"},
			{"?", "More"},
		}
	default: // ViewContainers
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Logs"},
			{"3", "Changes"},
			{"Tab", "Views"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Show active log search term
	if m.currentView == ViewLogs && m.logState.view.Search.Active() {
		segments = append(segments,
			bg.Render("/"+truncate(m.logState.view.Search.Term, 18), styles.AccentText))
	}

	// Add theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}
