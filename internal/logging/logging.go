// Package logging configures the process-wide zerolog logger. The TUI owns
// the terminal, so interactive sessions log to a file; CLI subcommands may
// log to stderr instead.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects the level and destination. Output is "stderr", "discard",
// or a file path that is created and appended to.
type Config struct {
	Level  string
	Output string
}

var (
	mu      sync.Mutex
	global  = zerolog.Nop()
	logFile *os.File
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// Init replaces the global logger. Calling it again closes any file opened
// by the previous call.
func Init(cfg Config) error {
	level := zerolog.InfoLevel
	if lvl := strings.TrimSpace(cfg.Level); lvl != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(lvl))
		if err != nil {
			return fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	out, file, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	global = zerolog.New(out).Level(level).With().Timestamp().Logger()
	log.Logger = global
	return nil
}

func openOutput(output string) (io.Writer, *os.File, error) {
	switch strings.TrimSpace(output) {
	case "stderr":
		return os.Stderr, nil, nil
	case "", "discard":
		return io.Discard, nil, nil
	}
	path := strings.TrimSpace(output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f, nil
}

// Close releases the log file, if any, and silences the logger.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	global = zerolog.Nop()
	log.Logger = global
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Logger returns the current global logger.
func Logger() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return global
}

// WithComponent returns a child logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}
