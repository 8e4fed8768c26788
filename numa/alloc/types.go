package alloc

import (
	"fmt"
	"log/slog"
)

// DefaultHeapSize is the per-node heap size used by DefaultOptions (24 MiB).
const DefaultHeapSize = 24 << 20

// Addr is the address of an allocated block. Blocks live outside the Go heap,
// so an Addr stays valid until the block is deallocated or the allocator is
// closed.
type Addr uintptr

// String formats the address in hex.
func (a Addr) String() string {
	return fmt.Sprintf("%#x", uintptr(a))
}

// MarshalText renders the address in hex for JSON and structured logs.
func (a Addr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Options configures an Allocator.
type Options struct {
	// HeapSize is the number of bytes reserved per NUMA node. It must be a
	// positive multiple of 128 (BINS × MinClass).
	// Default: 24 MiB
	HeapSize int

	// Topology supplies the node count and CPU mapping.
	// Default: sysfs detection (single node when unavailable)
	Topology Topology

	// Backing reserves and releases raw memory.
	// Default: anonymous mmap on Unix
	Backing Backing

	// Affinity pins the calling thread and reports its CPU.
	// Default: sched_setaffinity/getcpu on Linux, a fixed CPU elsewhere
	Affinity Affinity

	// PinAllocations pins the calling thread to the target node for the
	// duration of every allocation so raw reservations fault in locally.
	// Default: true
	PinAllocations bool

	// Logger receives diagnostic records. Nil uses the package-wide logger.
	Logger *slog.Logger
}

// DefaultOptions returns the options used for a system-wide allocator.
func DefaultOptions() Options {
	return Options{
		HeapSize:       DefaultHeapSize,
		PinAllocations: true,
	}
}
