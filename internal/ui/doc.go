// Package ui provides the deckhand terminal user interface.
//
// # Architecture Overview
//
// The UI is a single Bubble Tea model with four views:
//
//   - Containers: docker containers from state.Store, running first
//   - Logs: the reconciled tail of one container, with follow and search
//   - Changes: git status of the repository plus recent commits
//   - Diff: the selected file or commit split into collapsible cards
//
// # Log View
//
// The log view owns a logtail.ViewState and a pollTask. Entering the view,
// selecting another container, or pressing r starts a new polling
// generation with an immediate fetch; leaving the view stops it. Each fetch
// result is passed through logtail.Reconcile, the search is re-applied to
// the new display text, and the viewport content is only replaced when a
// hash of everything it depends on changes.
//
// # Key Bindings
//
//   - 1/2/3/4 or Tab: switch views
//   - enter: open logs (Containers) or a diff (Changes)
//   - Space: toggle follow (Logs) or fold the focused file (Diff)
//   - /, n, N: search logs and move between matches
//   - c: clear the log view until new lines arrive
//   - z, ], [: fold all files and move between files in a diff
//   - T: cycle theme
//   - e or Ctrl+C: exit
//
// Printer renders the same log updates and diffs as plain styled text for
// the non-interactive commands.
package ui
