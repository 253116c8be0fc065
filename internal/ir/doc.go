// Package ir provides the shared data types for teamsplit.
//
// This package contains type definitions only: roster names, application
// state, actions and their payloads, and result snapshots. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Actions are immutable values once constructed
//   - State values are copied on every boundary crossing (see State.Clone)
//   - All JSON tags use snake_case
//   - Snapshot identity is content-addressed via canonical JSON (hash.go)
package ir
