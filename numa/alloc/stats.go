package alloc

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// counters holds cumulative allocator statistics.
type counters struct {
	allocCalls     atomic.Int64
	freeCalls      atomic.Int64
	rawAllocs      atomic.Int64
	rawFrees       atomic.Int64
	exhausted      atomic.Int64
	bytesAllocated atomic.Int64
	bytesFreed     atomic.Int64
}

// Stats is a snapshot of cumulative allocator counters.
type Stats struct {
	AllocCalls     int64 // Allocation requests that reached a node
	FreeCalls      int64 // Non-nil Deallocate calls
	RawAllocs      int64 // Oversized allocations served by the backing store
	RawFrees       int64 // Oversized allocations released
	Exhausted      int64 // Allocations that found their bin empty
	BytesAllocated int64 // Class bytes (or raw bytes) handed out
	BytesFreed     int64 // Class bytes (or raw bytes) returned
	RawOutstanding int   // Oversized allocations not yet released
}

// BinStats describes one size class of one node.
type BinStats struct {
	Index  int  `json:"index"`
	Class  int  `json:"class"`
	Free   int  `json:"free"`   // blocks currently on the free list
	Blocks int  `json:"blocks"` // blocks owned by this bin
	First  Addr `json:"first"`  // first block of the bin's segment, 0 if empty
}

// NodeStats describes the state of one node heap.
type NodeStats struct {
	Node      int            `json:"node"`
	Start     Addr           `json:"start"`
	Size      int            `json:"size"`
	FreeBytes int            `json:"free_bytes"`
	Bins      [BINS]BinStats `json:"bins"`
}

// Stats returns a snapshot of the cumulative counters.
func (a *Allocator) Stats() Stats {
	a.rawMu.Lock()
	raw := len(a.raw)
	a.rawMu.Unlock()
	return Stats{
		AllocCalls:     a.stats.allocCalls.Load(),
		FreeCalls:      a.stats.freeCalls.Load(),
		RawAllocs:      a.stats.rawAllocs.Load(),
		RawFrees:       a.stats.rawFrees.Load(),
		Exhausted:      a.stats.exhausted.Load(),
		BytesAllocated: a.stats.bytesAllocated.Load(),
		BytesFreed:     a.stats.bytesFreed.Load(),
		RawOutstanding: raw,
	}
}

// NodeStats returns the current per-bin state of node.
func (a *Allocator) NodeStats(node int) (NodeStats, error) {
	if node < 0 || node >= len(a.nodes) {
		return NodeStats{}, fmt.Errorf("%w: %d of %d", ErrBadNode, node, len(a.nodes))
	}
	h := a.nodes[node]
	h.mu.Lock()
	defer h.mu.Unlock()

	ns := NodeStats{Node: h.id, Start: h.start, Size: h.total}
	for bin := range BINS {
		ns.Bins[bin] = BinStats{
			Index:  bin,
			Class:  ClassSize(bin),
			Free:   h.count[bin],
			Blocks: h.blocks[bin],
			First:  h.binStart[bin],
		}
		ns.FreeBytes += h.count[bin] * ClassSize(bin)
	}
	return ns, nil
}

// BinLen returns the number of free blocks in bin on node, or -1 when either
// index is out of range.
func (a *Allocator) BinLen(node, bin int) int {
	if node < 0 || node >= len(a.nodes) || bin < 0 || bin >= BINS {
		return -1
	}
	h := a.nodes[node]
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count[bin]
}

// Owner reports which node and bin the block starting at addr belongs to and
// whether it is currently allocated. Oversized allocations report RawBin.
func (a *Allocator) Owner(addr Addr) (node, bin int, allocated, ok bool) {
	for _, h := range a.nodes {
		if !h.contains(addr) {
			continue
		}
		h.mu.Lock()
		bin, allocated, ok = h.lookup(addr)
		h.mu.Unlock()
		return h.id, bin, allocated, ok
	}
	a.rawMu.Lock()
	span, ok := a.raw[addr]
	a.rawMu.Unlock()
	if ok {
		return span.node, RawBin, true, true
	}
	return 0, 0, false, false
}

// CheckInvariants verifies, for every node, that the blocks exactly cover
// the heap and that every free list agrees with the block index.
func (a *Allocator) CheckInvariants() error {
	var errs []error
	for _, h := range a.nodes {
		h.mu.Lock()
		if err := h.check(); err != nil {
			errs = append(errs, err)
		}
		h.mu.Unlock()
	}
	return errors.Join(errs...)
}
