// Package config handles loading and parsing the deckhand configuration file.
//
// # Overview
//
// deckhand shells out to docker and git, so configuration is mostly about
// where those tools live and how often views refresh. Every field is
// optional; a missing file yields defaults.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/deckhand/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - docker_bin: docker (resolved through PATH)
//   - git_bin: git (resolved through PATH)
//   - repo_dir: current directory
//   - tail_lines: 100
//   - poll_seconds: 5
//   - log_file: ~/.local/state/deckhand/deckhand.log
//   - log_level: info
//
// # TOML Format
//
//	docker_bin = "podman"
//	repo_dir = "~/src/app"
//	tail_lines = 200
//	poll_seconds = 3
//	log_level = "debug"
//
// String values are trimmed; tilde expansion applies to repo_dir and
// log_file. Non-positive numbers fall back to their defaults.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, and TOML parse errors. A missing file is not an error.
package config
