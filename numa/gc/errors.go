package gc

import (
	"errors"
	"fmt"
)

var (
	// ErrTrackedExhausted indicates that a tracked allocation failed even after
	// a full collection.
	ErrTrackedExhausted = errors.New("gc: heap exhausted after collection")

	// ErrStackOverflow indicates a push onto a full shadow stack.
	ErrStackOverflow = errors.New("gc: shadow stack overflow")

	// ErrStackUnderflow indicates a pop from an empty shadow stack.
	ErrStackUnderflow = errors.New("gc: shadow stack underflow")

	// ErrBadSlot indicates a shadow stack slot or stack pointer out of range.
	ErrBadSlot = errors.New("gc: shadow stack slot out of range")

	// ErrClosed indicates use of a collector after Close.
	ErrClosed = errors.New("gc: collector closed")
)

// FatalError is the panic value raised by Collector.Alloc when the heap is
// still exhausted after a collection. Continuing would hand the caller an
// invalid block, so the allocation never returns.
type FatalError struct {
	Size int
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("gc: tracked allocation of %d bytes failed: %v", e.Size, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
