// Package logtail turns repeatedly fetched, bounded log tails into a stable,
// incrementally updated display.
//
// # Overview
//
// Container runtimes only offer "the last N lines" of output. Polling that
// every few seconds yields overlapping snapshots with no sequence numbers and
// no guarantee that consecutive snapshots overlap at all. This package decides
// which lines are genuinely new and tells the renderer whether to append them
// or redraw from scratch.
//
// # Core Functionality
//
//  1. Clean: strip ANSI escapes, timestamp/IP/date/level prefixes, control
//     bytes and non-ASCII bytes from each line, then classify severity
//  2. Reconcile: merge a snapshot into a ViewState and emit an Instruction
//  3. Clear: hide the current lines until newer ones arrive
//  4. Highlight: run the literal search over the displayed text
//  5. Read / FileFetcher: ring-buffer tail of a local file
//
// # Reconciliation
//
// Reconcile replaces the display when the caller forces a reload, when the
// target was just selected, or when the previous fetch produced nothing or
// failed. Otherwise it looks for the previously last displayed line in the new
// snapshot, scanning forward and taking the first occurrence:
//
//	displayed:  a b c
//	snapshot:     b c d e
//	                  ^ overlap at "c", append [d e]
//
// If the overlap line is missing, the window rotated past it. Continuity
// cannot be proven, so the whole snapshot replaces the display instead of
// leaving a silent gap.
//
// # Manual Clear
//
// Clear remembers the last visible line and shows a waiting placeholder. The
// next snapshot that contains that line shows only what follows it. If the
// line has rotated out, the whole snapshot is shown.
//
// # Scroll Preservation
//
// Input.WasAtBottom carries the viewer's scroll position from before the
// update. Instruction.AutoScroll is only set when it was true, so a reader who
// scrolled up to read history is not pulled back down.
//
// # Ownership
//
// ViewState is a plain value. Each view owns exactly one; Reconcile, Clear and
// Highlight take the current state and return the next one. There is no
// package-level state, so independent views and tests never interfere.
//
// # Error Handling
//
// A fetch error becomes PlaceholderError and resets the display as if the
// target had just been selected. Empty output becomes PlaceholderNoLogs.
// Neither is returned as an error; the poller decides when to fetch again.
//
// Read returns nil, nil for non-existent files. Other I/O errors are wrapped.
package logtail
