package alloc

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/numakit/internal/affinity"
	"github.com/joshuapare/numakit/internal/backing"
	"github.com/joshuapare/numakit/internal/buf"
	"github.com/joshuapare/numakit/internal/logger"
	"github.com/joshuapare/numakit/internal/topology"
)

// Allocator serves fixed-class blocks from per-node heaps.
//
// AllocLocal, AllocInterleaved, AllocOnNode and Deallocate are safe for
// concurrent use. Each node heap has its own lock; no operation holds two
// node locks at once. Close must not run concurrently with other calls.
type Allocator struct {
	heapSize int
	topo     Topology
	store    Backing
	pin      Affinity
	pinAlloc bool
	log      *slog.Logger

	nodes []*nodeHeap

	rawMu sync.Mutex
	raw   map[Addr]rawSpan

	cursor atomic.Uint64
	closed atomic.Bool

	stats counters
}

// rawSpan is an oversized allocation served directly by the backing store.
type rawSpan struct {
	node int
	mem  []byte
}

// New reserves one heap of opts.HeapSize bytes per node and partitions each
// into bins. The initializing thread is pinned to each node's CPUs while that
// node's memory is faulted in.
//
// A reservation failure releases everything reserved so far and returns an
// error wrapping ErrBackingFailure.
func New(opts Options) (*Allocator, error) {
	if opts.HeapSize <= 0 || opts.HeapSize%heapQuantum != 0 {
		return nil, fmt.Errorf("%w: %d", ErrHeapSize, opts.HeapSize)
	}
	if opts.Topology == nil {
		opts.Topology = topology.Detect()
	}
	if opts.Backing == nil {
		opts.Backing = backing.Default()
	}
	if opts.Affinity == nil {
		opts.Affinity = affinity.Default()
	}

	a := &Allocator{
		heapSize: opts.HeapSize,
		topo:     opts.Topology,
		store:    opts.Backing,
		pin:      opts.Affinity,
		pinAlloc: opts.PinAllocations,
		log:      logger.Or(opts.Logger),
		raw:      make(map[Addr]rawSpan),
	}

	n := a.topo.NumNodes()
	if n <= 0 {
		return nil, topology.ErrNoNodes
	}
	if _, ok := buf.MulOverflowSafe(a.heapSize, n); !ok {
		return nil, fmt.Errorf("%w: %d bytes on %d nodes overflows", ErrHeapSize, a.heapSize, n)
	}
	for node := range n {
		h, err := a.initNode(node)
		if err != nil {
			a.log.Error("alloc.init", "node", node, "err", err)
			a.releaseNodes()
			return nil, err
		}
		a.nodes = append(a.nodes, h)
	}
	a.log.Debug("alloc.init", "nodes", n, "heap_size", a.heapSize)
	return a, nil
}

func (a *Allocator) initNode(node int) (*nodeHeap, error) {
	restore := a.pinTo(node)
	defer restore()

	region, err := a.store.Reserve(a.heapSize)
	if err != nil {
		return nil, fmt.Errorf("node %d: reserve %d bytes: %w: %w", node, a.heapSize, ErrBackingFailure, err)
	}
	if err := a.store.ForcePhysical(region); err != nil {
		_ = a.store.Release(region)
		return nil, fmt.Errorf("node %d: fault in: %w: %w", node, ErrBackingFailure, err)
	}

	h := newNodeHeap(node, region)
	h.partition()
	a.log.Debug("alloc.node", "node", node, "start", h.start, "size", h.total, "blocks", h.blocks)
	return h, nil
}

// pinTo pins the calling thread to node's CPUs. Failure to pin is logged and
// leaves placement to the kernel.
func (a *Allocator) pinTo(node int) func() {
	cpus := a.topo.CPUsOfNode(node)
	if len(cpus) == 0 {
		return func() {}
	}
	restore, err := a.pin.Pin(cpus)
	if err != nil {
		a.log.Warn("alloc.pin", "node", node, "err", err)
		return func() {}
	}
	return func() {
		if err := restore(); err != nil {
			a.log.Warn("alloc.unpin", "node", node, "err", err)
		}
	}
}

// Close releases every node heap and every outstanding oversized allocation.
// Calling Close more than once is a no-op.
func (a *Allocator) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	var errs []error

	a.rawMu.Lock()
	for addr, span := range a.raw {
		if err := a.store.Release(span.mem); err != nil {
			errs = append(errs, fmt.Errorf("raw %s: %w", addr, err))
		}
		delete(a.raw, addr)
	}
	a.rawMu.Unlock()

	if err := a.releaseNodes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *Allocator) releaseNodes() error {
	var errs []error
	for _, h := range a.nodes {
		h.mu.Lock()
		if err := a.store.Release(h.region); err != nil {
			errs = append(errs, fmt.Errorf("node %d: %w: %w", h.id, ErrBackingFailure, err))
		}
		h.region = nil
		h.mu.Unlock()
	}
	a.nodes = nil
	return errors.Join(errs...)
}

// AllocLocal allocates size bytes from the heap of the node the calling
// thread is running on. CPUs missing from the topology map to node 0.
//
// The returned slice has length size and capacity equal to the class size.
// Its memory is zeroed.
func (a *Allocator) AllocLocal(size int) (Addr, []byte, error) {
	if err := a.ready(size); err != nil {
		return 0, nil, err
	}
	return a.allocOn(a.localNode(), size)
}

// AllocInterleaved allocates size bytes from nodes in strict rotation:
// successive calls (from any goroutine) visit nodes 0, 1, …, n-1, 0, …
func (a *Allocator) AllocInterleaved(size int) (Addr, []byte, error) {
	if err := a.ready(size); err != nil {
		return 0, nil, err
	}
	node := int((a.cursor.Add(1) - 1) % uint64(len(a.nodes))) //nolint:gosec // modulo node count
	return a.allocOn(node, size)
}

// AllocOnNode allocates size bytes from the given node's heap.
func (a *Allocator) AllocOnNode(node, size int) (Addr, []byte, error) {
	if err := a.ready(size); err != nil {
		return 0, nil, err
	}
	if node < 0 || node >= len(a.nodes) {
		return 0, nil, fmt.Errorf("%w: %d of %d", ErrBadNode, node, len(a.nodes))
	}
	return a.allocOn(node, size)
}

func (a *Allocator) ready(size int) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	return nil
}

// localNode resolves the calling thread's CPU to a node.
func (a *Allocator) localNode() int {
	cpu, err := a.pin.CurrentCPU()
	if err != nil {
		return 0
	}
	node, ok := a.topo.NodeOfCPU(cpu)
	if !ok || node >= len(a.nodes) {
		return 0
	}
	return node
}

func (a *Allocator) allocOn(node, size int) (Addr, []byte, error) {
	if a.pinAlloc {
		restore := a.pinTo(node)
		defer restore()
	}
	a.stats.allocCalls.Add(1)

	bin := BinIndex(size)
	if bin == RawBin {
		return a.allocRaw(node, size)
	}

	h := a.nodes[node]
	h.mu.Lock()
	addr, ok := h.pop(bin)
	h.mu.Unlock()
	if !ok {
		a.stats.exhausted.Add(1)
		a.log.Debug("alloc.exhausted", "node", node, "bin", bin, "class", ClassSize(bin))
		return 0, nil, fmt.Errorf("%w: node %d bin %d (class %d)", ErrResourceExhausted, node, bin, ClassSize(bin))
	}

	class := ClassSize(bin)
	off := int(addr - h.start)
	block := h.region[off : off+class]
	clear(block)
	a.stats.bytesAllocated.Add(int64(class))
	return addr, block[:size], nil
}

// Bytes returns the n bytes starting at addr, sliced from the node heap or
// oversized span that owns them. It returns nil when addr is not inside
// memory this allocator manages or when n runs past the end of it. The
// caller must own the block for the lifetime of the slice.
func (a *Allocator) Bytes(addr Addr, n int) []byte {
	if n <= 0 {
		return nil
	}
	for _, h := range a.nodes {
		if !h.contains(addr) {
			continue
		}
		off := int(addr - h.start)
		if !buf.Has(h.region, off, n) {
			return nil
		}
		return h.region[off : off+n : off+n]
	}
	a.rawMu.Lock()
	span, ok := a.raw[addr]
	a.rawMu.Unlock()
	if !ok || n > len(span.mem) {
		return nil
	}
	return span.mem[:n:n]
}

// allocRaw serves an oversized request straight from the backing store.
func (a *Allocator) allocRaw(node, size int) (Addr, []byte, error) {
	mem, err := a.store.Reserve(size)
	if err != nil {
		a.log.Error("alloc.raw", "node", node, "size", size, "err", err)
		return 0, nil, fmt.Errorf("raw %d bytes: %w: %w", size, ErrBackingFailure, err)
	}
	if err := a.store.ForcePhysical(mem); err != nil {
		_ = a.store.Release(mem)
		return 0, nil, fmt.Errorf("raw %d bytes: %w: %w", size, ErrBackingFailure, err)
	}
	addr := Addr(buf.Addr(mem))

	a.rawMu.Lock()
	a.raw[addr] = rawSpan{node: node, mem: mem}
	a.rawMu.Unlock()

	a.stats.rawAllocs.Add(1)
	a.stats.bytesAllocated.Add(int64(size))
	return addr, mem, nil
}

// Deallocate returns the block at addr to the free list of the bin it was
// carved from, or releases it to the backing store if it was oversized.
// The owning node and bin are resolved from the address alone.
//
// Deallocate(0) is a no-op. Addresses outside every node and raw span yield
// ErrUnknownAddress; interior pointers yield ErrBadAddress; a second free of
// the same block yields ErrDoubleFree.
func (a *Allocator) Deallocate(addr Addr) error {
	if addr == 0 {
		return nil
	}
	if a.closed.Load() {
		return ErrClosed
	}
	a.stats.freeCalls.Add(1)

	for _, h := range a.nodes {
		if !h.contains(addr) {
			continue
		}
		h.mu.Lock()
		bin, err := h.release(addr)
		h.mu.Unlock()
		if err != nil {
			a.log.Warn("alloc.free", "addr", addr, "err", err)
			return err
		}
		a.stats.bytesFreed.Add(int64(ClassSize(bin)))
		return nil
	}

	a.rawMu.Lock()
	span, ok := a.raw[addr]
	if ok {
		delete(a.raw, addr)
	}
	a.rawMu.Unlock()
	if ok {
		if err := a.store.Release(span.mem); err != nil {
			return fmt.Errorf("raw %s: %w: %w", addr, ErrBackingFailure, err)
		}
		a.stats.rawFrees.Add(1)
		a.stats.bytesFreed.Add(int64(len(span.mem)))
		return nil
	}

	a.log.Warn("alloc.free", "addr", addr, "err", ErrUnknownAddress)
	return fmt.Errorf("%w: %s", ErrUnknownAddress, addr)
}

// NumNodes returns the number of node heaps.
func (a *Allocator) NumNodes() int { return len(a.nodes) }

// HeapSize returns the size of each node heap in bytes.
func (a *Allocator) HeapSize() int { return a.heapSize }
