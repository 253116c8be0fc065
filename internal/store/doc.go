// Package store provides SQLite-backed durable storage for team snapshots.
//
// A snapshot is written once and never updated:
//   - snapshots: one row per split (content-addressed ID plus metadata)
//   - snapshot_members: one row per placed member, keyed by
//     (snapshot_id, team_index, position)
//
// # Critical Patterns
//
// Idempotent Writes:
//   - Snapshot IDs are content-addressed (ir.SnapshotID), so writing the
//     same split twice is a no-op (ON CONFLICT DO NOTHING)
//
// Deterministic Reads:
//   - Members are always read ORDER BY team_index, position
//   - Listings are ORDER BY created_at DESC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
