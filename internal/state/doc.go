// Package state provides thread-safe sharing of the container list between
// the background poller and the UI.
//
// # Overview
//
// The poller refreshes the list from docker on its own goroutine; the Bubble
// Tea model reads it on every tick. Store mediates between the two:
//
//	Producer (Poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ ListContainers │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │  render list    │
//	└────────────────┘            └─────────────────┘
//
// # Update Semantics
//
// A successful refresh replaces the list and resets the failure counter. A
// failed refresh keeps the previous list, records the error, and increments
// ConsecutiveFailures; IsOffline reports two or more in a row.
//
// Both Update and Snapshot copy the container slice so neither side can
// mutate what the other holds.
//
// The zero Store is ready to use.
package state
