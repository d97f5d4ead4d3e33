// Package sqlite implements the store contracts on SQLite through the pure-Go
// modernc.org/sqlite driver. It backs local development and hermetic tests.
//
// Timestamps are stored as Unix milliseconds in UTC; UUIDs as text.
package sqlite
