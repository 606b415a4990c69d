package logtail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	require.NoError(t, os.WriteFile(logPath, []byte(content.String()), 0o644))

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"default window (0)", 0, expectedAll},
		{"default window (negative)", -1, expectedAll},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileFetcher(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(logPath, []byte("one\ntwo\nthree\n"), 0o644))

	raw, err := FileFetcher{}.FetchTail(context.Background(), logPath, 2)
	require.NoError(t, err)
	assert.Equal(t, "two\nthree", raw)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FileFetcher{}.FetchTail(ctx, logPath, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBound(t *testing.T) {
	lines := texts("a", "b", "c", "d")
	assert.Equal(t, texts("c", "d"), bound(lines, 2))
	assert.Equal(t, lines, bound(lines, 10))

	out := bound(lines, 10)
	out[0].Text = "changed"
	assert.Equal(t, "a", lines[0].Text, "bound must copy")
}

func texts(values ...string) []Line {
	lines := make([]Line, len(values))
	for i, v := range values {
		lines[i] = NewLine(v)
	}
	return lines
}
