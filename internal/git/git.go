// Package git reads working tree changes and commit history by shelling out
// to the git CLI. Diff text is returned raw; parsing lives in package diff.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/five82/deckhand/internal/shell"
)

// ErrNotRepository reports a directory outside any git work tree.
var ErrNotRepository = errors.New("not a git repository")

const defaultBin = "git"

// ChangedFile is one entry of git status.
type ChangedFile struct {
	Path     string
	OldPath  string // set for renames and copies
	Index    byte   // staged status column
	Worktree byte   // unstaged status column
}

// Untracked reports a file git does not know about yet.
func (f ChangedFile) Untracked() bool {
	return f.Index == '?' && f.Worktree == '?'
}

// Status is the two-column porcelain code with blanks shown as dots.
func (f ChangedFile) Status() string {
	return string([]byte{dot(f.Index), dot(f.Worktree)})
}

func dot(b byte) byte {
	if b == ' ' || b == 0 {
		return '.'
	}
	return b
}

// Commit is a summary line of git log.
type Commit struct {
	Hash    string
	Short   string
	Author  string
	When    time.Time
	Subject string
}

// DiffFetcher is implemented by *Client and fakes in tests.
type DiffFetcher interface {
	ChangedFiles(ctx context.Context) ([]ChangedFile, error)
	FileDiff(ctx context.Context, file ChangedFile) (string, error)
	Commits(ctx context.Context, limit int) ([]Commit, error)
	CommitDiff(ctx context.Context, hash string) (string, error)
}

var _ DiffFetcher = (*Client)(nil)

// Client runs git commands against one repository directory.
type Client struct {
	bin    string
	dir    string
	runner shell.Runner
}

// NewClient builds a Client for dir. An empty bin uses "git" from PATH; a nil
// runner executes on the host.
func NewClient(bin, dir string, runner shell.Runner) *Client {
	if strings.TrimSpace(bin) == "" {
		bin = defaultBin
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if runner == nil {
		runner = shell.Exec{}
	}
	return &Client{bin: bin, dir: dir, runner: runner}
}

// Dir returns the repository directory the client runs in.
func (c *Client) Dir() string {
	return c.dir
}

// ChangedFiles lists staged, unstaged and untracked files.
func (c *Client) ChangedFiles(ctx context.Context) ([]ChangedFile, error) {
	out, err := c.run(ctx, "status", "--porcelain=v1", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	return parseStatus(out), nil
}

// FileDiff returns the unified diff of one file against HEAD. Untracked files
// are diffed against /dev/null so they show as added.
func (c *Client) FileDiff(ctx context.Context, file ChangedFile) (string, error) {
	path := strings.TrimSpace(file.Path)
	if path == "" {
		return "", fmt.Errorf("path required")
	}
	if file.Untracked() {
		out, err := c.run(ctx, "diff", "--no-color", "--no-index", "--", "/dev/null", path)
		// --no-index exits 1 when the inputs differ, which they always do here.
		if err != nil && shell.ExitCode(err) != 1 {
			return "", err
		}
		return string(out), nil
	}
	out, err := c.run(ctx, "diff", "--no-color", "HEAD", "--", path)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

const logFormat = "%H%x1f%h%x1f%an%x1f%at%x1f%s"

// Commits returns up to limit commits reachable from HEAD, newest first.
func (c *Client) Commits(ctx context.Context, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = 20
	}
	out, err := c.run(ctx, "log", "-n", strconv.Itoa(limit), "--format="+logFormat)
	if err != nil {
		return nil, err
	}
	return parseLog(out), nil
}

// CommitDiff returns the patch introduced by a commit without its message.
func (c *Client) CommitDiff(ctx context.Context, hash string) (string, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" || strings.HasPrefix(hash, "-") {
		return "", fmt.Errorf("invalid commit %q", hash)
	}
	out, err := c.run(ctx, "show", "--no-color", "--format=", hash, "--")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	full := append([]string{"-C", c.dir}, args...)
	res, err := c.runner.Run(ctx, c.bin, full...)
	if err != nil {
		if bytes.Contains(bytes.ToLower(res.Stderr), []byte("not a git repository")) {
			return res.Stdout, fmt.Errorf("git %s in %s: %w", args[0], c.dir, ErrNotRepository)
		}
		return res.Stdout, fmt.Errorf("git %s: %w", args[0], err)
	}
	return res.Stdout, nil
}

func parseStatus(out []byte) []ChangedFile {
	var files []ChangedFile
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 {
			continue
		}
		f := ChangedFile{Index: line[0], Worktree: line[1]}
		rest := line[3:]
		if f.Index == 'R' || f.Index == 'C' || f.Worktree == 'R' || f.Worktree == 'C' {
			if from, to, ok := strings.Cut(rest, " -> "); ok {
				f.OldPath = unquote(from)
				rest = to
			}
		}
		f.Path = unquote(rest)
		files = append(files, f)
	}
	return files
}

// unquote undoes git's C-style quoting of paths with unusual characters.
func unquote(p string) string {
	if len(p) >= 2 && strings.HasPrefix(p, `"`) && strings.HasSuffix(p, `"`) {
		if s, err := strconv.Unquote(p); err == nil {
			return s
		}
	}
	return p
}

func parseLog(out []byte) []Commit {
	var commits []Commit
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.SplitN(line, "\x1f", 5)
		if len(fields) != 5 {
			continue
		}
		c := Commit{Hash: fields[0], Short: fields[1], Author: fields[2], Subject: fields[4]}
		if secs, err := strconv.ParseInt(fields[3], 10, 64); err == nil {
			c.When = time.Unix(secs, 0)
		}
		commits = append(commits, c)
	}
	return commits
}
