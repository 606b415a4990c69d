package ui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/deckhand/internal/git"
)

const twoFileDiff = `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1 +1 @@
-old
+new
diff --git a/b.go b/b.go
--- a/b.go
+++ b/b.go
@@ -1 +1,2 @@
 keep
+more
`

type fakeGit struct {
	files      []git.ChangedFile
	commits    []git.Commit
	statusErr  error
	commitsErr error
	diffs      map[string]string
	requested  []string
}

func (f *fakeGit) ChangedFiles(context.Context) ([]git.ChangedFile, error) {
	return f.files, f.statusErr
}

func (f *fakeGit) FileDiff(_ context.Context, file git.ChangedFile) (string, error) {
	f.requested = append(f.requested, "file:"+file.Path)
	return f.diffs[file.Path], nil
}

func (f *fakeGit) Commits(context.Context, int) ([]git.Commit, error) {
	return f.commits, f.commitsErr
}

func (f *fakeGit) CommitDiff(_ context.Context, hash string) (string, error) {
	f.requested = append(f.requested, "commit:"+hash)
	return f.diffs[hash], nil
}

func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = update(m, cmd())
	return m
}

func TestChanges_LoadsFilesAndCommits(t *testing.T) {
	g := &fakeGit{
		files:   []git.ChangedFile{{Path: "a.go", Index: ' ', Worktree: 'M'}},
		commits: []git.Commit{{Hash: "abc123", Short: "abc123", Subject: "Initial"}},
	}
	m := newTestModel(t, Options{Git: g})

	m, cmd := update(m, keyPress("3"))
	assert.Equal(t, ViewChanges, m.currentView)
	assert.True(t, m.changes.loading)
	m = runCmd(t, m, cmd)

	assert.True(t, m.changes.loaded)
	assert.Len(t, m.changes.files, 1)
	assert.Len(t, m.changes.commits, 1)
	out := m.View()
	assert.Contains(t, out, "a.go")
	assert.Contains(t, out, "Initial")
}

func TestChanges_CommitLogFailureKeepsStatus(t *testing.T) {
	g := &fakeGit{
		files:      []git.ChangedFile{{Path: "a.go", Index: '?', Worktree: '?'}},
		commitsErr: errors.New("does not have any commits yet"),
	}
	m := newTestModel(t, Options{Git: g})

	m, cmd := update(m, keyPress("3"))
	m = runCmd(t, m, cmd)
	assert.NoError(t, m.changes.err)
	assert.Len(t, m.changes.files, 1)
	assert.Empty(t, m.changes.commits)
}

func TestChanges_StatusErrorIsShown(t *testing.T) {
	g := &fakeGit{statusErr: git.ErrNotRepository}
	m := newTestModel(t, Options{Git: g})

	m, cmd := update(m, keyPress("3"))
	m = runCmd(t, m, cmd)
	assert.ErrorIs(t, m.changes.err, git.ErrNotRepository)
	assert.Contains(t, m.View(), "git:")
}

func TestChanges_EnterOpensFileThenCommitDiff(t *testing.T) {
	g := &fakeGit{
		files:   []git.ChangedFile{{Path: "a.go", Worktree: 'M'}},
		commits: []git.Commit{{Hash: "abc123", Short: "abc123", Subject: "Initial"}},
		diffs:   map[string]string{"a.go": twoFileDiff, "abc123": twoFileDiff},
	}
	m := newTestModel(t, Options{Git: g})

	m, cmd := update(m, keyPress("3"))
	m = runCmd(t, m, cmd)

	m, cmd = update(m, keyPress("enter"))
	assert.Equal(t, ViewDiff, m.currentView)
	m = runCmd(t, m, cmd)
	assert.Len(t, m.diffState.files, 2)
	assert.Equal(t, "a.go", m.diffState.title)

	m, _ = update(m, keyPress("esc"))
	assert.Equal(t, ViewChanges, m.currentView)
	m, _ = update(m, keyPress("j"))
	m, cmd = update(m, keyPress("enter"))
	m = runCmd(t, m, cmd)
	assert.Equal(t, "abc123 Initial", m.diffState.title)
	assert.Equal(t, []string{"file:a.go", "commit:abc123"}, g.requested)
}

func TestDiff_CardsFoldAndNavigate(t *testing.T) {
	m := newTestModel(t, Options{})
	cmd := m.loadDiff("test", func(context.Context) (string, error) { return twoFileDiff, nil })
	m = runCmd(t, m, cmd)
	require.Len(t, m.diffState.files, 2)
	require.Len(t, m.diffState.offsets, 2)
	assert.Equal(t, 0, m.diffState.offsets[0])

	content := m.diffViewport.View()
	assert.Contains(t, content, "+new")
	assert.Contains(t, content, "+1 -1")
	assert.Contains(t, m.View(), "2 files")

	m, _ = update(m, keyPress(" "))
	assert.True(t, m.diffState.collapsed[0])
	assert.Equal(t, 1, m.diffState.offsets[1], "collapsed card is a single header line")

	m, _ = update(m, keyPress("]"))
	assert.Equal(t, 1, m.diffState.focused)
	m, _ = update(m, keyPress("]"))
	assert.Equal(t, 1, m.diffState.focused, "focus stops at the last card")

	m, _ = update(m, keyPress("z"))
	assert.True(t, m.diffState.collapsed[0])
	assert.True(t, m.diffState.collapsed[1])
	m, _ = update(m, keyPress("z"))
	assert.False(t, m.diffState.collapsed[0])
	assert.False(t, m.diffState.collapsed[1])

	m, _ = update(m, keyPress("["))
	assert.Equal(t, 0, m.diffState.focused)
}

func TestDiff_StaleLoadIsDropped(t *testing.T) {
	m := newTestModel(t, Options{})
	first := m.loadDiff("first", func(context.Context) (string, error) { return twoFileDiff, nil })
	second := m.loadDiff("second", func(context.Context) (string, error) { return "", nil })

	firstMsg := first()
	m = runCmd(t, m, second)
	m, _ = update(m, firstMsg)

	assert.Equal(t, "second", m.diffState.title)
	assert.Empty(t, m.diffState.files)
	assert.Contains(t, m.diffViewport.View(), "No differences")
}

func TestDiff_LoadErrorIsShown(t *testing.T) {
	m := newTestModel(t, Options{})
	cmd := m.loadDiff("broken", func(context.Context) (string, error) { return "", errors.New("bad revision") })
	m = runCmd(t, m, cmd)

	assert.Error(t, m.diffState.err)
	assert.Contains(t, m.View(), "bad revision")
}
