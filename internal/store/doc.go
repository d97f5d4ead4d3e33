// Package store defines the persistence contracts of the scheduler.
// Implementations live under internal/platform and are always scoped to a
// single user's cards.
package store
