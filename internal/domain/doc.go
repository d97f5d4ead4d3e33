// Package domain holds the scheduler's entities: cards and their memory
// state, review ratings, per-user study preferences, backlog snapshots and
// bulk action results. It has no storage or transport dependencies.
//
// The memory model itself lives in the srs subpackage.
package domain
