// Package backing reserves and releases the raw memory that node heaps and
// oversized allocations are carved from.
//
// Regions are returned as byte slices whose first byte never moves, so their
// addresses can be handed out as integers and later resolved back to the
// owning region. A slice must be released with the exact value Reserve
// returned.
package backing

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrInvalidSize is returned when a reservation of zero or negative bytes is requested.
	ErrInvalidSize = errors.New("backing: size must be positive")

	// ErrExhausted is returned by Heap when its Limit would be exceeded.
	ErrExhausted = errors.New("backing: reservation limit reached")
)

// Store reserves raw memory, forces it to be physically backed, and releases it.
type Store interface {
	// Reserve returns size bytes of zero-initialised memory.
	Reserve(size int) ([]byte, error)

	// Release returns a region obtained from Reserve to the OS.
	Release(b []byte) error

	// ForcePhysical touches every page of b so it is placed on the calling
	// thread's current node.
	ForcePhysical(b []byte) error
}

// PageSize is the OS page size used for page touching.
var PageSize = os.Getpagesize()

// touchPages writes one byte per page so the kernel faults every page in on
// the calling thread's current node.
func touchPages(b []byte) {
	for i := 0; i < len(b); i += PageSize {
		b[i] = 0
	}
	if len(b) > 0 {
		b[len(b)-1] = 0
	}
}

func checkSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return nil
}
