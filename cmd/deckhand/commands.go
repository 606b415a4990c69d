package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/deckhand/internal/app"
	"github.com/five82/deckhand/internal/diff"
	"github.com/five82/deckhand/internal/git"
	"github.com/five82/deckhand/internal/logging"
	"github.com/five82/deckhand/internal/logtail"
	"github.com/five82/deckhand/internal/prefs"
	"github.com/five82/deckhand/internal/ui"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	prefsPath  string
	poll       int
}

func (g globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		PollEvery:  g.poll,
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "deckhand [container]",
		Short: "Watch container logs and repository changes from the terminal",
		Long: `deckhand is a read-only dashboard for a docker host and a git working tree.
Without a subcommand it starts the interactive UI, optionally opening the
logs of the given container.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			if len(args) == 1 {
				opts.Target = args[0]
			}
			return app.Run(cmd.Context(), opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/deckhand/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/deckhand/prefs.toml)")
	pf.IntVar(&flags.poll, "poll", 0, "refresh interval in seconds (default from config)")

	root.AddCommand(
		newLogsCmd(&flags),
		newDiffCmd(&flags),
		newShowCmd(&flags),
	)
	return root
}

func newLogsCmd(flags *globalFlags) *cobra.Command {
	var (
		follow bool
		file   bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "logs <container>",
		Short: "Print the cleaned tail of a container log",
		Long: `Print the most recent lines of a container log with timestamps, levels and
addresses stripped. With --follow new lines are printed as they arrive; a
gap in the log is marked instead of silently skipped.

Examples:
  deckhand logs web
  deckhand logs web --follow
  deckhand logs --file /var/log/app.log -n 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			opts.LogOutput = "stderr"
			env, err := app.Setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logging.Close() }()

			var fetcher logtail.Fetcher = env.Docker
			if file {
				fetcher = logtail.FileFetcher{}
			}
			window := env.Config.Window()
			if lines > 0 {
				window = lines
			}

			printer := newPrinter(cmd.OutOrStdout(), flags.prefsPath)
			var writeErr error
			emit := func(in logtail.Instruction) {
				if writeErr == nil {
					writeErr = printer.Instruction(in)
				}
			}
			if err := app.FollowLogs(cmd.Context(), fetcher, args[0], window, env.PollInterval(opts), follow, emit); err != nil {
				return err
			}
			return writeErr
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new lines")
	cmd.Flags().BoolVar(&file, "file", false, "treat the argument as a log file path")
	cmd.Flags().IntVarP(&lines, "lines", "n", 0, "number of lines to keep (default from config)")
	return cmd
}

func newDiffCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diff [path...]",
		Short: "Show uncommitted changes",
		Long: `Show the working tree diff against HEAD, one section per file. Without
paths every changed file is shown, untracked files included.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Setup(withStderrLogs(flags.options()))
			if err != nil {
				return err
			}
			defer func() { _ = logging.Close() }()

			raw, err := workingTreeDiff(cmd.Context(), env.Git, args)
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), flags.prefsPath).Diff(diff.Parse(raw))
		},
	}
}

func newShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <commit>",
		Short: "Show the changes introduced by a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Setup(withStderrLogs(flags.options()))
			if err != nil {
				return err
			}
			defer func() { _ = logging.Close() }()

			raw, err := env.Git.CommitDiff(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), flags.prefsPath).Diff(diff.Parse(raw))
		},
	}
}

// workingTreeDiff concatenates the diffs of the given paths, or of every
// changed file when none are given.
func workingTreeDiff(ctx context.Context, client git.DiffFetcher, paths []string) (string, error) {
	changed, err := client.ChangedFiles(ctx)
	if err != nil {
		return "", err
	}
	files := changed
	if len(paths) > 0 {
		// Keep status codes so untracked paths are diffed against /dev/null.
		byPath := make(map[string]git.ChangedFile, len(changed))
		for _, f := range changed {
			byPath[f.Path] = f
		}
		files = make([]git.ChangedFile, 0, len(paths))
		for _, p := range paths {
			f, ok := byPath[p]
			if !ok {
				f = git.ChangedFile{Path: p}
			}
			files = append(files, f)
		}
	}

	var b strings.Builder
	for _, f := range files {
		raw, err := client.FileDiff(ctx, f)
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", f.Path, err)
		}
		b.WriteString(raw)
		if raw != "" && !strings.HasSuffix(raw, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func withStderrLogs(opts app.Options) app.Options {
	opts.LogOutput = "stderr"
	return opts
}

func newPrinter(w io.Writer, prefsPath string) *ui.Printer {
	return ui.NewPrinter(w, prefs.Load(prefsPath).Theme)
}
