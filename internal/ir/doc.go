// Package ir provides the shared data types for storygen.
//
// This package contains type definitions and content hashing only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Grammar snapshots are content-addressed via canonical JSON (RFC 8785
//     key ordering, NFC strings) and SHA-256 with domain separation
//   - All JSON tags use snake_case
//   - Archive ordering uses logical sequence numbers, never wall-clock time
package ir
