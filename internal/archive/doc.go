// Package archive provides SQLite-backed storage for generated stories.
//
// The archive is append-only and holds two tables:
//   - grammars: rule tables in canonical JSON, keyed by content hash
//   - generations: one row per generated story, referencing its grammar
//
// # Ordering
//
// Every generation is stamped with a seq from a logical clock that resumes
// from the highest stored seq on Open. Listings are ordered by
// seq ASC, id ASC COLLATE BINARY and never by wall time.
//
// # Replay
//
// A generation with a non-zero seed can be regenerated from its archived
// rule table alone; see story.Replay.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package archive
