package docker

import (
	"strings"
	"time"
)

// stampedLine is one line of `docker logs --timestamps` output.
type stampedLine struct {
	at   time.Time
	text string
}

// splitStamped parses one stream. A line without a readable timestamp
// inherits the previous one so it stays next to its predecessor.
func splitStamped(out []byte) []stampedLine {
	raw := strings.TrimRight(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "\n")
	lines := make([]stampedLine, 0, len(parts))
	var last time.Time
	for _, p := range parts {
		stamp, rest, ok := strings.Cut(p, " ")
		if at, err := time.Parse(time.RFC3339Nano, stamp); ok && err == nil {
			last = at
			p = rest
		} else if err == nil && !ok {
			// A stamped empty line has no trailing space.
			last = at
			p = ""
		}
		lines = append(lines, stampedLine{at: last, text: p})
	}
	return lines
}

// mergeStreams interleaves docker's separately captured stdout and stderr
// back into write order. Each stream is already ordered, so this is a
// stable two-way merge; stdout wins ties.
func mergeStreams(stdout, stderr []byte) string {
	a, b := splitStamped(stdout), splitStamped(stderr)
	if len(a)+len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	write := func(l stampedLine) {
		sb.WriteString(l.text)
		sb.WriteByte('\n')
	}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j].at.Before(a[i].at) {
			write(b[j])
			j++
		} else {
			write(a[i])
			i++
		}
	}
	for ; i < len(a); i++ {
		write(a[i])
	}
	for ; j < len(b); j++ {
		write(b[j])
	}
	return sb.String()
}
