package app

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/deckhand/internal/config"
	"github.com/five82/deckhand/internal/docker"
	"github.com/five82/deckhand/internal/git"
	"github.com/five82/deckhand/internal/logging"
	"github.com/five82/deckhand/internal/prefs"
	"github.com/five82/deckhand/internal/state"
	"github.com/five82/deckhand/internal/ui"
)

// Options configure a deckhand session.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/deckhand/prefs.toml
	PollEvery  int    // seconds; zero uses the configured value
	LogOutput  string // empty uses the configured log file
	Target     string // container to open on start (optional)
}

// Env is the loaded configuration and the adapters built from it.
type Env struct {
	Config config.Config
	Docker *docker.Client
	Git    *git.Client
}

// PollInterval returns the effective refresh cadence.
func (e Env) PollInterval(opts Options) time.Duration {
	if opts.PollEvery > 0 {
		return time.Duration(opts.PollEvery) * time.Second
	}
	return e.Config.PollInterval()
}

// Setup loads configuration, starts logging and builds the docker and git
// clients. Callers must call logging.Close when done.
func Setup(opts Options) (Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return Env{}, fmt.Errorf("load config: %w", err)
	}

	output := opts.LogOutput
	if output == "" {
		output = cfg.LogFile
	}
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Output: output}); err != nil {
		return Env{}, fmt.Errorf("init logging: %w", err)
	}

	return Env{
		Config: cfg,
		Docker: docker.NewClient(cfg.DockerBin, nil),
		Git:    git.NewClient(cfg.GitBin, cfg.RepoDir, nil),
	}, nil
}

// Run boots the deckhand TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()

	logger := logging.WithComponent("app")
	userPrefs := prefs.Load(opts.PrefsPath)
	store := &state.Store{}
	interval := env.PollInterval(opts)

	logger.Info().
		Str("repo", env.Config.RepoDir).
		Str("docker", env.Config.DockerBin).
		Dur("interval", interval).
		Msg("starting deckhand")

	// Start background poller
	StartPoller(ctx, store, env.Docker, interval)

	uiOpts := ui.Options{
		Context:   ctx,
		Store:     store,
		Logs:      env.Docker,
		Git:       env.Git,
		RepoDir:   env.Config.RepoDir,
		LogPoll:   interval,
		Window:    env.Config.Window(),
		ThemeName: userPrefs.Theme,
		Follow:    userPrefs.Follow,
		PrefsPath: opts.PrefsPath,
		Target:    opts.Target,
	}
	if err := ui.Run(uiOpts); err != nil {
		logger.Error().Err(err).Msg("ui exited with error")
		return err
	}
	logger.Info().Msg("deckhand stopped")
	return nil
}
