package gc

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/joshuapare/numakit/internal/backing"
	"github.com/joshuapare/numakit/internal/buf"
	"github.com/joshuapare/numakit/internal/logger"
	"github.com/joshuapare/numakit/numa/alloc"
)

// ObjectHeader is the collector's record of one tracked allocation.
type ObjectHeader struct {
	Marked bool
	Size   int
}

// Collector is a conservative mark-and-sweep collector over an Allocator.
//
// NOT thread-safe. A collection assumes a single mutator: nothing else may
// allocate through the collector, write tracked objects, or touch the shadow
// stack while Collect runs.
type Collector struct {
	alloc     *alloc.Allocator
	ownsAlloc bool
	store     backing.Store
	log       *slog.Logger

	policy    Policy
	auto      bool
	threshold int
	sinceLast int

	traced map[alloc.Addr]*ObjectHeader

	stackMem []byte
	stack    *ShadowStack
	regions  map[RootID][]byte
	nextRoot RootID

	last   CycleStats
	totals Stats
	closed bool
}

// Stats holds cumulative collector counters.
type Stats struct {
	Cycles         int   `json:"cycles"`          // Completed collections
	Allocations    int64 `json:"allocations"`     // Tracked allocations
	AllocatedBytes int64 `json:"allocated_bytes"` // Requested bytes of tracked allocations
	Collected      int64 `json:"collected"`       // Objects reclaimed
	CollectedBytes int64 `json:"collected_bytes"` // Requested bytes reclaimed
	Retries        int64 `json:"retries"`         // Allocations that needed a collection to succeed
}

// New initializes the allocator (unless opts.Allocator is supplied), reserves
// the shadow stack and records its base as the upper bound of stack scans.
func New(opts Options) (*Collector, error) {
	if opts.StackSize <= 0 {
		opts.StackSize = DefaultStackSize
	}

	a := opts.Allocator
	owns := false
	if a == nil {
		var err error
		a, err = alloc.New(opts.Alloc)
		if err != nil {
			return nil, err
		}
		owns = true
	}

	store := opts.Alloc.Backing
	if store == nil {
		store = backing.Default()
	}
	mem, err := store.Reserve(opts.StackSize)
	if err != nil {
		if owns {
			_ = a.Close()
		}
		return nil, fmt.Errorf("gc: reserve shadow stack: %w", err)
	}

	c := &Collector{
		alloc:     a,
		ownsAlloc: owns,
		store:     store,
		log:       logger.Or(opts.Logger),
		policy:    opts.Policy,
		auto:      opts.AutoCollect,
		threshold: a.HeapSize() / 4 * 3,
		traced:    make(map[alloc.Addr]*ObjectHeader),
		stackMem:  mem,
		stack:     newShadowStack(mem),
		regions:   make(map[RootID][]byte),
	}
	c.log.Debug("gc.init", "threshold", c.threshold, "stack_base", c.stack.Base(), "policy", c.policy)
	return c, nil
}

// Close runs a final collection, releases the shadow stack and, if the
// collector created it, closes the allocator.
func (c *Collector) Close() error {
	if c.closed {
		return nil
	}
	c.Collect()
	c.closed = true

	var errs []error
	if err := c.store.Release(c.stackMem); err != nil {
		errs = append(errs, fmt.Errorf("gc: release shadow stack: %w", err))
	}
	c.stackMem, c.stack = nil, nil
	c.traced = nil
	if c.ownsAlloc {
		errs = append(errs, c.alloc.Close())
	}
	return errors.Join(errs...)
}

// Alloc allocates a tracked object of size bytes. If the heap is exhausted it
// collects once and retries; if that also fails it panics with a *FatalError
// wrapping ErrTrackedExhausted.
func (c *Collector) Alloc(size int) (alloc.Addr, []byte) {
	addr, b, err := c.TryAlloc(size)
	if err != nil {
		c.log.Error("gc.alloc", "size", size, "err", err)
		panic(&FatalError{Size: size, Err: err})
	}
	return addr, b
}

// TryAlloc is Alloc without the panic: the final failure is returned as an
// error wrapping ErrTrackedExhausted.
func (c *Collector) TryAlloc(size int) (alloc.Addr, []byte, error) {
	if c.closed {
		return 0, nil, ErrClosed
	}
	if size <= 0 {
		size = buf.WordSize
	}
	if c.auto && c.sinceLast > c.threshold {
		c.log.Debug("gc.auto", "allocated", c.sinceLast, "threshold", c.threshold)
		c.Collect()
	}

	addr, b, err := c.allocate(size)
	if err != nil {
		if !errors.Is(err, alloc.ErrResourceExhausted) && !errors.Is(err, alloc.ErrBackingFailure) {
			return 0, nil, err
		}
		c.log.Debug("gc.alloc", "size", size, "err", err, "action", "collect")
		c.Collect()
		addr, b, err = c.allocate(size)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %d bytes: %w", ErrTrackedExhausted, size, err)
		}
		c.totals.Retries++
	}

	c.traced[addr] = &ObjectHeader{Size: size}
	c.sinceLast += size
	c.totals.Allocations++
	c.totals.AllocatedBytes += int64(size)
	return addr, b, nil
}

func (c *Collector) allocate(size int) (alloc.Addr, []byte, error) {
	if c.policy == PolicyInterleaved {
		return c.alloc.AllocInterleaved(size)
	}
	return c.alloc.AllocLocal(size)
}

// NewObject allocates a tracked, zeroed T and returns a pointer into collector
// memory. T must not contain Go pointers: the Go runtime does not scan
// collector memory. Link objects with alloc.Addr fields instead.
func NewObject[T any](c *Collector) *T {
	var zero T
	_, b := c.Alloc(int(unsafe.Sizeof(zero)))
	return (*T)(unsafe.Pointer(unsafe.SliceData(b)))
}

// AddrOf returns the address of an object returned by NewObject.
func AddrOf[T any](p *T) alloc.Addr {
	return alloc.Addr(uintptr(unsafe.Pointer(p)))
}

// ObjectAt returns the object at addr as a *T, or nil when addr is not
// collector memory large enough for a T. addr must name a live object
// allocated for a T.
func ObjectAt[T any](c *Collector, addr alloc.Addr) *T {
	var zero T
	b := c.alloc.Bytes(addr, int(unsafe.Sizeof(zero)))
	if b == nil {
		return nil
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(b)))
}

// Stack returns the shadow stack scanned for roots.
func (c *Collector) Stack() *ShadowStack { return c.stack }

// Allocator returns the allocator tracked objects come from.
func (c *Collector) Allocator() *alloc.Allocator { return c.alloc }

// Tracked reports whether addr is a live tracked object.
func (c *Collector) Tracked(addr alloc.Addr) bool {
	_, ok := c.traced[addr]
	return ok
}

// Header returns a copy of addr's header.
func (c *Collector) Header(addr alloc.Addr) (ObjectHeader, bool) {
	h, ok := c.traced[addr]
	if !ok {
		return ObjectHeader{}, false
	}
	return *h, true
}

// Len returns the number of tracked objects.
func (c *Collector) Len() int { return len(c.traced) }

// Stats returns the cumulative counters.
func (c *Collector) Stats() Stats { return c.totals }

// LastCycle returns the statistics of the most recent collection.
func (c *Collector) LastCycle() CycleStats { return c.last }
