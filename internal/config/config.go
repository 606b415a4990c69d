package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the tool locations and refresh settings deckhand needs.
type Config struct {
	DockerBin   string
	GitBin      string
	RepoDir     string
	TailLines   int
	PollSeconds int
	LogFile     string
	LogLevel    string
}

const (
	defaultConfigPath  = "~/.config/deckhand/config.toml"
	defaultDockerBin   = "docker"
	defaultGitBin      = "git"
	defaultRepoDir     = "."
	defaultTailLines   = 100
	defaultPollSeconds = 5
	defaultLogFile     = "~/.local/state/deckhand/deckhand.log"
	defaultLogLevel    = "info"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DockerBin:   defaultDockerBin,
		GitBin:      defaultGitBin,
		RepoDir:     mustExpand(defaultRepoDir),
		TailLines:   defaultTailLines,
		PollSeconds: defaultPollSeconds,
		LogFile:     mustExpand(defaultLogFile),
		LogLevel:    defaultLogLevel,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		DockerBin   string `toml:"docker_bin"`
		GitBin      string `toml:"git_bin"`
		RepoDir     string `toml:"repo_dir"`
		TailLines   int    `toml:"tail_lines"`
		PollSeconds int    `toml:"poll_seconds"`
		LogFile     string `toml:"log_file"`
		LogLevel    string `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Config{
		DockerBin:   orDefault(raw.DockerBin, defaultDockerBin),
		GitBin:      orDefault(raw.GitBin, defaultGitBin),
		RepoDir:     mustExpand(orDefault(raw.RepoDir, defaultRepoDir)),
		TailLines:   raw.TailLines,
		PollSeconds: raw.PollSeconds,
		LogFile:     mustExpand(orDefault(raw.LogFile, defaultLogFile)),
		LogLevel:    strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel)),
	}
	if cfg.TailLines <= 0 {
		cfg.TailLines = defaultTailLines
	}
	if cfg.PollSeconds <= 0 {
		cfg.PollSeconds = defaultPollSeconds
	}
	return cfg, nil
}

// PollInterval returns the refresh cadence as a duration.
func (c Config) PollInterval() time.Duration {
	if c.PollSeconds <= 0 {
		return defaultPollSeconds * time.Second
	}
	return time.Duration(c.PollSeconds) * time.Second
}

// Window returns the log tail window size.
func (c Config) Window() int {
	if c.TailLines <= 0 {
		return defaultTailLines
	}
	return c.TailLines
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
