package git

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/deckhand/internal/shell"
)

type fakeRunner struct {
	calls [][]string
	res   shell.Result
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (shell.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.res, f.err
}

func TestChangedFiles_ParsesPorcelain(t *testing.T) {
	out := " M internal/app/app.go\n" +
		"A  new.go\n" +
		"R  old name.go -> new name.go\n" +
		"?? scratch/notes.txt\n" +
		"MM \"quoted\\tpath.go\"\n" +
		"\n"
	runner := &fakeRunner{res: shell.Result{Stdout: []byte(out)}}
	c := NewClient("", "/repo", runner)

	files, err := c.ChangedFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 5)

	assert.Equal(t, "internal/app/app.go", files[0].Path)
	assert.Equal(t, ".M", files[0].Status())

	assert.Equal(t, "A.", files[1].Status())

	assert.Equal(t, "new name.go", files[2].Path)
	assert.Equal(t, "old name.go", files[2].OldPath)

	assert.True(t, files[3].Untracked())
	assert.Equal(t, "scratch/notes.txt", files[3].Path)

	assert.Equal(t, "quoted\tpath.go", files[4].Path)

	assert.Equal(t, []string{"git", "-C", "/repo", "status", "--porcelain=v1", "--untracked-files=all"}, runner.calls[0])
}

func TestChangedFiles_NotRepository(t *testing.T) {
	runner := &fakeRunner{
		res: shell.Result{Stderr: []byte("fatal: not a git repository (or any of the parent directories): .git\n"), ExitCode: 128},
		err: &shell.ExitError{Command: "git", ExitCode: 128},
	}
	c := NewClient("git", "/tmp", runner)

	_, err := c.ChangedFiles(context.Background())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestFileDiff_TrackedFile(t *testing.T) {
	runner := &fakeRunner{res: shell.Result{Stdout: []byte("diff --git a/x b/x\n")}}
	c := NewClient("", "", runner)

	out, err := c.FileDiff(context.Background(), ChangedFile{Path: "x", Worktree: 'M', Index: ' '})
	require.NoError(t, err)
	assert.Equal(t, "diff --git a/x b/x\n", out)
	assert.Equal(t, []string{"git", "-C", ".", "diff", "--no-color", "HEAD", "--", "x"}, runner.calls[0])
}

func TestFileDiff_UntrackedAcceptsExitOne(t *testing.T) {
	runner := &fakeRunner{
		res: shell.Result{Stdout: []byte("diff --git a/n b/n\nnew file mode 100644\n"), ExitCode: 1},
		err: &shell.ExitError{Command: "git", ExitCode: 1},
	}
	c := NewClient("", "", runner)

	out, err := c.FileDiff(context.Background(), ChangedFile{Path: "n", Index: '?', Worktree: '?'})
	require.NoError(t, err)
	assert.Contains(t, out, "new file mode")
	assert.Contains(t, runner.calls[0], "--no-index")
}

func TestFileDiff_UntrackedRealFailure(t *testing.T) {
	runner := &fakeRunner{err: &shell.ExitError{Command: "git", ExitCode: 2}}
	c := NewClient("", "", runner)

	_, err := c.FileDiff(context.Background(), ChangedFile{Path: "n", Index: '?', Worktree: '?'})
	require.Error(t, err)
}

func TestCommits_ParsesLog(t *testing.T) {
	out := "aaaaaaaa\x1faaaa\x1fAda\x1f1714564800\x1fFix the thing\n" +
		"bbbbbbbb\x1fbbbb\x1fGrace\x1fbogus\x1fSubject with \x1f separator\n" +
		"garbage\n"
	runner := &fakeRunner{res: shell.Result{Stdout: []byte(out)}}
	c := NewClient("", "", runner)

	commits, err := c.Commits(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, "aaaa", commits[0].Short)
	assert.Equal(t, "Fix the thing", commits[0].Subject)
	assert.Equal(t, time.Unix(1714564800, 0), commits[0].When)
	assert.True(t, commits[1].When.IsZero())
	assert.Equal(t, "Subject with \x1f separator", commits[1].Subject)

	assert.Equal(t, "20", runner.calls[0][5])
}

func TestCommitDiff(t *testing.T) {
	runner := &fakeRunner{res: shell.Result{Stdout: []byte("diff --git a/x b/x\n")}}
	c := NewClient("", "", runner)

	_, err := c.CommitDiff(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "-C", ".", "show", "--no-color", "--format=", "abc123", "--"}, runner.calls[0])

	_, err = c.CommitDiff(context.Background(), "--output=/tmp/x")
	require.Error(t, err)
	_, err = c.CommitDiff(context.Background(), " ")
	require.Error(t, err)
}
