// Package store persists decision runs in SQLite.
//
// Each run has one row in runs holding its latest state as canonical JSON,
// and one row per audit entry in audit_entries. Audit rows are
// insert-only: saving a run again appends the entries it has gained and
// leaves existing ones untouched.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Queries that return more than one row order by a stable key (seq, or
// created_at then id) so listings are deterministic.
package store
