// Package affinity reads and restricts the set of CPUs the calling OS thread
// may run on. Pinning a thread to a node's CPUs makes first-touch page faults
// allocate physical memory on that node.
package affinity

import "errors"

// ErrNoCPUs is returned when Pin is asked to pin to an empty CPU set.
var ErrNoCPUs = errors.New("affinity: empty cpu set")

// Pinner pins the calling thread and reports where it runs.
type Pinner interface {
	// CurrentCPU returns the CPU the calling thread is executing on.
	CurrentCPU() (int, error)

	// Pin locks the calling goroutine to its OS thread and restricts that
	// thread to cpus. The returned restore func reinstates the previous mask
	// and unlocks the thread; it must be called on the same goroutine.
	Pin(cpus []int) (restore func() error, err error)
}

// Fixed reports a constant CPU and never changes the thread mask. It is used
// on platforms without affinity control and for deterministic placement.
type Fixed struct {
	CPU int
}

// CurrentCPU returns f.CPU.
func (f Fixed) CurrentCPU() (int, error) { return f.CPU, nil }

// Pin is a no-op.
func (f Fixed) Pin(cpus []int) (func() error, error) {
	if len(cpus) == 0 {
		return nil, ErrNoCPUs
	}
	return func() error { return nil }, nil
}
