package logtail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultWindow is the number of most recent lines fetched and retained.
const DefaultWindow = 100

// Fetcher returns the raw text of the latest bounded tail for a target.
// An empty string with a nil error means the target has no logs.
type Fetcher interface {
	FetchTail(ctx context.Context, target string, lines int) (string, error)
}

// FileFetcher tails plain log files; the target is the file path.
type FileFetcher struct{}

var _ Fetcher = FileFetcher{}

// FetchTail implements Fetcher.
func (FileFetcher) FetchTail(ctx context.Context, path string, lines int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tail, err := Read(path, lines)
	if err != nil {
		return "", err
	}
	return strings.Join(tail, "\n"), nil
}

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		maxLines = DefaultWindow
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// bound keeps the last window lines. The result never aliases lines.
func bound(lines []Line, window int) []Line {
	if window <= 0 {
		window = DefaultWindow
	}
	if overflow := len(lines) - window; overflow > 0 {
		lines = lines[overflow:]
	}
	return append([]Line(nil), lines...)
}
