package logtail

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Severity is the display class of a cleaned line.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarn:
		return "warn"
	default:
		return "normal"
	}
}

// Line is a single cleaned, classified unit of display. Two lines are the
// same line when their Text is equal.
type Line struct {
	Text     string
	Severity Severity
}

// NewLine classifies already-cleaned text.
func NewLine(text string) Line {
	return Line{Text: text, Severity: classify(text)}
}

// Prefixes commonly emitted ahead of the message by access logs and
// container runtimes. They are stripped repeatedly from the start of a line.
var prefixPatterns = []*regexp.Regexp{
	// 2024-05-01T12:00:00.123Z, 2024-05-01 12:00:00,123 +0200
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|\s?[+-]\d{2}:?\d{2})?`),
	// 10.0.0.1, 10.0.0.1:8080, optionally followed by CLF ident/authuser
	regexp.MustCompile(`^(?:\d{1,3}\.){3}\d{1,3}(?::\d+)?(?:\s+-\s+\S+)?`),
	// [10/Oct/2000:13:55:36 -0700]
	regexp.MustCompile(`^\[\d{2}/[A-Za-z]{3}/\d{4}:\d{2}:\d{2}:\d{2}(?:\s[+-]\d{4})?\]`),
	// INFO:, [ERROR], WARNING -
	regexp.MustCompile(`(?i)^\[?(?:trace|debug|info|notice|warn|warning|error|err|fatal|critical|crit)\]?(?::|\s+-|\])`),
}

// Clean splits raw tail output into display lines. Each line loses ANSI
// escapes, well-known prefixes, control bytes and anything outside printable
// ASCII; lines left empty are dropped.
func Clean(raw string) []Line {
	if raw == "" {
		return nil
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	parts := strings.Split(raw, "\n")
	lines := make([]Line, 0, len(parts))
	for _, part := range parts {
		text := CleanLine(part)
		if text == "" {
			continue
		}
		lines = append(lines, NewLine(text))
	}
	return lines
}

// CleanLine applies the per-line cleaning rules and returns the remaining
// text, or "" when nothing printable is left.
func CleanLine(line string) string {
	line = ansi.Strip(strings.ReplaceAll(line, "\t", " "))
	line = stripPrefixes(line)
	line = printableASCII(line)
	if strings.TrimSpace(line) == "" {
		return ""
	}
	return strings.TrimRight(line, " ")
}

func stripPrefixes(line string) string {
	line = strings.TrimLeft(line, " \t")
	for {
		stripped := false
		for _, re := range prefixPatterns {
			loc := re.FindStringIndex(line)
			if loc == nil || loc[1] == 0 {
				continue
			}
			line = strings.TrimLeft(line[loc[1]:], " \t")
			stripped = true
		}
		if !stripped {
			return line
		}
	}
}

func printableASCII(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func classify(text string) Severity {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "error"):
		return SeverityError
	case strings.Contains(lower, "warn"):
		return SeverityWarn
	default:
		return SeverityNormal
	}
}
