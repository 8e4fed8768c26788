package gc

import (
	"log/slog"

	"github.com/joshuapare/numakit/numa/alloc"
)

// DefaultStackSize is the shadow stack size used by DefaultOptions (64 KiB).
const DefaultStackSize = 64 << 10

// Policy selects how tracked allocations pick a node.
type Policy int

const (
	// PolicyLocal allocates on the node of the calling thread.
	PolicyLocal Policy = iota

	// PolicyInterleaved rotates tracked allocations across nodes.
	PolicyInterleaved
)

func (p Policy) String() string {
	switch p {
	case PolicyLocal:
		return "local"
	case PolicyInterleaved:
		return "interleaved"
	}
	return "unknown"
}

// Options configures a Collector.
type Options struct {
	// Alloc configures the allocator the collector creates. Ignored when
	// Allocator is set.
	Alloc alloc.Options

	// Allocator, when non-nil, is used instead of creating one. The
	// collector does not close a supplied allocator.
	Allocator *alloc.Allocator

	// StackSize is the size of the shadow stack in bytes.
	// Default: 64 KiB
	StackSize int

	// Policy selects the node for tracked allocations.
	// Default: PolicyLocal
	Policy Policy

	// AutoCollect runs a collection at the start of a tracked allocation
	// once more than 75% of HeapSize has been allocated since the last one.
	// Default: false
	AutoCollect bool

	// Logger receives diagnostic records. Nil uses the package-wide logger.
	Logger *slog.Logger
}

// DefaultOptions returns collector options over alloc.DefaultOptions.
func DefaultOptions() Options {
	return Options{
		Alloc:     alloc.DefaultOptions(),
		StackSize: DefaultStackSize,
		Policy:    PolicyLocal,
	}
}
