// Package ferr defines the error taxonomy shared by every flowrunner
// component: the queue engine, the supervisor, both backends, and the
// RPC adapter all report failures using these sentinel values so that
// callers (and the gRPC interceptor) can classify an error without
// parsing its message.
package ferr

import "errors"

var (
	// ErrInvalidArgument covers null/empty required input, a duplicate
	// handle, or an unknown backend tag.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound covers an unknown queue name or task ID.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists covers a duplicate queue name.
	ErrAlreadyExists = errors.New("already exists")

	// ErrOSError covers spawn, fork, I/O, or channel failures.
	ErrOSError = errors.New("os error")

	// ErrTimeout covers an RPC deadline exceeded.
	ErrTimeout = errors.New("timeout")
)

// Code returns the taxonomy label for err, matched via errors.Is against
// the sentinels above. It returns "" for errors outside the taxonomy.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return "invalid-argument"
	case errors.Is(err, ErrNotFound):
		return "not-found"
	case errors.Is(err, ErrAlreadyExists):
		return "already-exists"
	case errors.Is(err, ErrOSError):
		return "os-error"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return ""
	}
}
