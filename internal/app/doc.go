// Package app provides the orchestration layer for deckhand.
//
// # Overview
//
// This package wires together configuration, logging, the docker and git
// adapters, background polling and the UI. It is the composition root for
// both the TUI and the one-shot CLI commands.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> Setup()             config.Load, logging.Init, clients
//	       ├─────> prefs.Load()        Theme and follow default
//	       ├─────> state.Store{}       Shared container list
//	       ├─────> StartPoller()       Launch background container refresh
//	       └─────> ui.Run()            Start TUI (blocks)
//
//	Background Poller Loop:
//	┌─────────────────────────────────────────┐
//	│ StartPoller() goroutine                 │
//	│  ├─> docker ps                          │
//	│  ├─> store.Update()  (atomic)           │
//	│  └─> wait interval (backoff on failure) │
//	└─────────────────────────────────────────┘
//
// Log tails are not polled here. The TUI log view owns its own poll task so
// that hiding the view or switching containers stops fetching immediately.
// FollowLogs is the non-interactive equivalent used by "deckhand logs".
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file unreadable or invalid
//   - Log file cannot be opened
//   - The Bubble Tea program fails
//
// Recoverable errors (logged, polling continues):
//   - docker ps failures, with exponential backoff capped at 30 seconds
//   - Log tail fetch failures, shown in the log view
package app
