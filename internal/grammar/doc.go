// Package grammar implements the rule store behind story generation.
//
// A Store maps canonical rule names to sets of alternative text fragments.
// Canonical names are upper-case and wrapped in the '*' delimiter, so the
// user-facing names "verb", "VERB" and "*verb*" all address "*VERB*".
//
// A Store always holds the sentinel rule "*NOTHING*" so that a fresh or reset
// store is never empty.
//
// Concurrency: a Store is not safe for concurrent mutation. The intended use
// is single-writer construction followed by read-only expansion.
package grammar
