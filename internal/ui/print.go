package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/deckhand/internal/diff"
	"github.com/five82/deckhand/internal/logtail"
)

// Printer writes log updates and diffs for the non-interactive commands.
// Colors follow the theme and are dropped when w is not a terminal.
type Printer struct {
	w       io.Writer
	printed bool

	text    lipgloss.Style
	muted   lipgloss.Style
	faint   lipgloss.Style
	accent  lipgloss.Style
	added   lipgloss.Style
	removed lipgloss.Style
	warn    lipgloss.Style
	danger  lipgloss.Style
	info    lipgloss.Style
}

// NewPrinter returns a Printer rendering with the named theme.
func NewPrinter(w io.Writer, themeName string) *Printer {
	r := lipgloss.NewRenderer(w)
	th := GetTheme(themeName)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	return &Printer{
		w:       w,
		text:    r.NewStyle(),
		muted:   fg(th.Muted),
		faint:   fg(th.Faint),
		accent:  fg(th.Accent).Bold(true),
		added:   fg(th.Success),
		removed: fg(th.Danger),
		warn:    fg(th.Warning),
		danger:  fg(th.Danger).Bold(true),
		info:    fg(th.Info),
	}
}

// Instruction prints one log update. A replace after earlier output means
// the tail lost continuity, which is marked before the new lines.
func (p *Printer) Instruction(in logtail.Instruction) error {
	switch in.Placeholder {
	case logtail.PlaceholderNoLogs:
		return p.line(p.muted.Render("-- no logs available --"))
	case logtail.PlaceholderWaiting:
		return p.line(p.muted.Render("-- waiting for new log lines --"))
	case logtail.PlaceholderError:
		msg := "-- failed to fetch logs --"
		if in.Err != nil {
			msg = fmt.Sprintf("-- failed to fetch logs: %v --", in.Err)
		}
		return p.line(p.danger.Render(msg))
	}

	if in.Mode == logtail.ModeReplace && p.printed && len(in.Lines) > 0 {
		if err := p.line(p.faint.Render("-- log view reset --")); err != nil {
			return err
		}
	}
	for _, l := range in.Lines {
		if err := p.line(p.severity(l.Severity).Render(l.Text)); err != nil {
			return err
		}
	}
	if len(in.Lines) > 0 {
		p.printed = true
	}
	return nil
}

// Diff prints parsed file diffs with a summary header per file.
func (p *Printer) Diff(files []diff.FileDiff) error {
	if len(files) == 0 {
		return p.line(p.muted.Render("No differences"))
	}
	for i, f := range files {
		if i > 0 {
			if err := p.line(""); err != nil {
				return err
			}
		}
		added, removed := f.Stats()
		header := p.accent.Render(f.Title()) + " " +
			p.added.Render(fmt.Sprintf("+%d", added)) + " " +
			p.removed.Render(fmt.Sprintf("-%d", removed)) + " " +
			p.muted.Render("["+f.Kind.String()+"]")
		if f.Binary {
			header += " " + p.warn.Render("[binary]")
		}
		if err := p.line(header); err != nil {
			return err
		}
		for _, l := range f.Lines {
			if l.Kind == diff.LineHeader {
				continue
			}
			if err := p.line(p.diffLine(l.Kind).Render(l.Text)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Printer) severity(s logtail.Severity) lipgloss.Style {
	switch s {
	case logtail.SeverityError:
		return p.removed
	case logtail.SeverityWarn:
		return p.warn
	default:
		return p.text
	}
}

func (p *Printer) diffLine(k diff.LineKind) lipgloss.Style {
	switch k {
	case diff.LineAdded:
		return p.added
	case diff.LineRemoved:
		return p.removed
	case diff.LineHunkHeader:
		return p.info
	case diff.LineMetadata:
		return p.faint
	default:
		return p.text
	}
}

func (p *Printer) line(s string) error {
	_, err := io.WriteString(p.w, strings.TrimRight(s, "\n")+"\n")
	return err
}
