// Package storage defines the durable per-queue backing store and its
// BoltDB-backed implementation: one embedded-database file per queue,
// JSON-encoded rows, idempotent bucket creation on open.
package storage

import "github.com/cuemby/flowrunner/internal/model"

// Store persists one queue's pending and finished task rows. Each queue
// owns exactly one Store for its lifetime; the backing file is named
// "<queue>.db" within the connection's data directory.
type Store interface {
	// PutPending upserts a pending row.
	PutPending(t *model.Task) error
	// GetPending returns a pending row, or ferr.ErrNotFound.
	GetPending(id uint64) (*model.Task, error)
	// ListPending returns pending task IDs in ascending ID order, which
	// is insertion order when IDs come from ReserveID.
	ListPending() ([]uint64, error)
	// DeletePending removes a pending row. No-op if absent.
	DeletePending(id uint64) error
	// ClearPending removes every pending row.
	ClearPending() error

	// PutFinished upserts a finished row.
	PutFinished(t *model.Task) error
	// GetFinished returns a finished row, or ferr.ErrNotFound.
	GetFinished(id uint64) (*model.Task, error)
	// ListFinished returns finished task IDs in ascending ID order.
	ListFinished() ([]uint64, error)
	// ClearFinished removes every finished row.
	ClearFinished() error

	// ReserveID returns the next task ID for this queue and durably
	// advances the counter, so an ID is never reused even after the row
	// that held it is removed and the store reopened.
	ReserveID() (uint64, error)

	// Close closes the backing file.
	Close() error
}
