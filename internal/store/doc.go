// Package store persists record tables in SQLite.
//
// A table written by WriteTable holds one row per record and one untyped
// column per field, so SQLite keeps integers, reals and text as they are.
// Values SQLite has no storage class for are encoded, and the encoding is
// recorded per column in the refset_tables catalog:
//
//   - bool: stored as 0/1, decoded back to bool
//   - json: lists and maps, stored as canonical JSON text
//   - time: stored as RFC 3339 text, decoded back to time.Time
//
// Tables without a catalog row (created by other tools) are read as-is.
//
// # Deterministic Reads
//
// Every read compiles through querysql, which always emits ORDER BY. With
// no explicit order, rows come back by rowid, which is insertion order, so
// a table round-trips in the order it was written.
//
// ReadMatching filters with a queryir predicate. Untyped columns make SQL
// compare 1 and '1' as different values, so only comparisons whose values
// share the storage class of the stored column values run in SQL; the
// whole predicate is then applied to the rows read.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Content hashes in the catalog are SHA-256 over canonical JSON with a
// domain prefix, so identical datasets hash identically across runs.
package store
