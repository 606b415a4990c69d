package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("abcdefghij", 8); got != "ab...hij" {
		t.Fatalf("truncateMiddle = %q, want ab...hij", got)
	}
	if got := truncateMiddle("short", 10); got != "short" {
		t.Fatalf("truncateMiddle = %q, want short", got)
	}
}

func TestRenderTitledBox(t *testing.T) {
	m := New(Options{})
	box := m.renderTitledBox("Logs", "one\ntwo", 20, 5, true)

	lines := strings.Split(box, "\n")
	if len(lines) != 5 {
		t.Fatalf("box has %d lines, want 5", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 20 {
			t.Errorf("line %d width = %d, want 20", i, w)
		}
	}
	if !strings.Contains(lines[0], " Logs ") {
		t.Errorf("title missing from top border: %q", lines[0])
	}
	if !strings.Contains(lines[1], "one") || !strings.Contains(lines[2], "two") {
		t.Errorf("content not placed inside the box")
	}
}
