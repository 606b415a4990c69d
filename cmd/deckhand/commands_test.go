package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/deckhand/internal/git"
)

type stubGit struct {
	files     []git.ChangedFile
	statusErr error
	diffs     map[string]string
	seen      []git.ChangedFile
}

func (s *stubGit) ChangedFiles(context.Context) ([]git.ChangedFile, error) {
	return s.files, s.statusErr
}

func (s *stubGit) FileDiff(_ context.Context, f git.ChangedFile) (string, error) {
	s.seen = append(s.seen, f)
	return s.diffs[f.Path], nil
}

func (s *stubGit) Commits(context.Context, int) ([]git.Commit, error) { return nil, nil }

func (s *stubGit) CommitDiff(context.Context, string) (string, error) { return "", nil }

func TestWorkingTreeDiff_AllFiles(t *testing.T) {
	g := &stubGit{
		files: []git.ChangedFile{{Path: "a.go", Worktree: 'M'}, {Path: "b.go", Index: '?', Worktree: '?'}},
		diffs: map[string]string{"a.go": "diff a", "b.go": "diff b\n"},
	}
	raw, err := workingTreeDiff(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Equal(t, "diff a\ndiff b\n", raw)
	assert.Len(t, g.seen, 2)
}

func TestWorkingTreeDiff_SelectedPathsKeepStatus(t *testing.T) {
	g := &stubGit{
		files: []git.ChangedFile{{Path: "a.go", Worktree: 'M'}, {Path: "new.go", Index: '?', Worktree: '?'}},
		diffs: map[string]string{"new.go": "diff new\n"},
	}
	raw, err := workingTreeDiff(context.Background(), g, []string{"new.go", "clean.go"})
	require.NoError(t, err)
	assert.Equal(t, "diff new\n", raw)
	require.Len(t, g.seen, 2)
	assert.True(t, g.seen[0].Untracked())
	assert.Equal(t, git.ChangedFile{Path: "clean.go"}, g.seen[1])
}

func TestWorkingTreeDiff_StatusError(t *testing.T) {
	g := &stubGit{statusErr: git.ErrNotRepository}
	_, err := workingTreeDiff(context.Background(), g, nil)
	assert.True(t, errors.Is(err, git.ErrNotRepository))
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"logs", "diff", "show"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.Error(t, root.Args(root, []string{"a", "b"}))
}
