package domain

import "time"

// SnapshotStore mirrors the most recent catalog snapshot (bbolt + memory).
// It is a read cache of the upstream listing, not a source of truth.
type SnapshotStore interface {
	// LoadSnapshot returns the mirrored snapshot and the time it was fetched upstream
	LoadSnapshot() (Snapshot, time.Time, bool)

	// SaveSnapshot replaces the mirror
	SaveSnapshot(snap Snapshot, fetchedAt time.Time) error

	// Clear removes the mirror
	Clear() error

	Close() error
}
