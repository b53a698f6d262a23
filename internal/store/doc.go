// Package store provides SQLite-backed durable storage for the resolution
// journal.
//
// Every call resolution the compiler reports can be recorded:
//   - Resolutions: the call, the bound variant or the failure code
//   - Candidates: each overload tried, in catalog order
//
// # Critical Patterns
//
// Content-addressed records
//   - A record's id is the domain-separated SHA-256 of its canonical JSON
//     (see ir.ResolutionID) combined with its session
//   - Recording the same outcome twice in a session is a no-op
//
// Logical time
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//
// Deterministic query results
//   - All queries include: ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
