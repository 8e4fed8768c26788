package alloc

import (
	"fmt"
	"sync"

	"github.com/joshuapare/numakit/internal/buf"
)

// Owner index encoding: one byte per MinClass granule of the region.
// Zero means the granule is not the first granule of a block.
const (
	ownerBinMask   = 0x0f // bin + 1
	ownerAllocated = 0x80
)

// nodeHeap is the per-node arena: one contiguous region partitioned into
// fixed-size blocks, with a free list per bin. Every field below mu is
// guarded by mu.
type nodeHeap struct {
	id     int
	region []byte
	start  Addr
	total  int

	mu sync.Mutex

	free     [BINS]int32 // list heads (descriptor indexes)
	count    [BINS]int   // free blocks per bin
	blocks   [BINS]int   // blocks owned by each bin since init
	binStart [BINS]Addr  // first block address of each bin's segment, 0 if none

	descs descArena
	owner []uint8
}

func newNodeHeap(id int, region []byte) *nodeHeap {
	h := &nodeHeap{
		id:     id,
		region: region,
		start:  Addr(buf.Addr(region)),
		total:  len(region),
		descs:  newDescArena(len(region) / MinClass / 4),
		owner:  make([]uint8, len(region)/MinClass),
	}
	for bin := range h.free {
		h.free[bin] = noDesc
	}
	return h
}

// partition splits the region into BINS equal segments (the last absorbs any
// remainder) and fills each with blocks of its class. Bytes of a segment that
// cannot hold another block of its class become MinClass blocks of bin 0, so
// the blocks exactly cover the region.
func (h *nodeHeap) partition() {
	seg := buf.AlignDown(h.total/BINS, MinClass)
	off := 0
	for bin := range BINS {
		capacity := seg
		if bin == BINS-1 {
			capacity = h.total - off
		}
		class := ClassSize(bin)
		n := capacity / class
		if n > 0 {
			h.binStart[bin] = h.start + Addr(off)
		}
		// Push high to low so the list head is the lowest address.
		for i := n - 1; i >= 0; i-- {
			h.push(bin, h.start+Addr(off+i*class))
		}
		h.blocks[bin] += n

		tail := off + n*class
		for rest := capacity - n*class; rest >= MinClass; rest -= MinClass {
			h.push(0, h.start+Addr(tail))
			h.blocks[0]++
			tail += MinClass
		}
		off += capacity
	}
}

func (h *nodeHeap) contains(a Addr) bool {
	return a >= h.start && a < h.start+Addr(h.total)
}

func (h *nodeHeap) granule(a Addr) int {
	return int(a-h.start) / MinClass
}

// push links the block at a onto bin's free list (LIFO).
func (h *nodeHeap) push(bin int, a Addr) {
	h.free[bin] = h.descs.get(a, ClassSize(bin), h.free[bin])
	h.count[bin]++
	h.owner[h.granule(a)] = uint8(bin + 1)
}

// pop unlinks the head block of bin and marks it allocated.
func (h *nodeHeap) pop(bin int) (Addr, bool) {
	i := h.free[bin]
	if i == noDesc {
		return 0, false
	}
	d := h.descs.at(i)
	a := d.addr
	h.free[bin] = d.next
	h.count[bin]--
	h.descs.put(i)
	h.owner[h.granule(a)] |= ownerAllocated
	return a, true
}

// release returns the allocated block starting at a to its bin.
func (h *nodeHeap) release(a Addr) (int, error) {
	off := int(a - h.start)
	if !buf.IsAligned(off, MinClass) {
		return 0, fmt.Errorf("%w: %s (node %d, misaligned)", ErrBadAddress, a, h.id)
	}
	o := h.owner[off/MinClass]
	if o == 0 {
		return 0, fmt.Errorf("%w: %s (node %d, interior)", ErrBadAddress, a, h.id)
	}
	if o&ownerAllocated == 0 {
		return 0, fmt.Errorf("%w: %s (node %d)", ErrDoubleFree, a, h.id)
	}
	bin := int(o&ownerBinMask) - 1
	h.push(bin, a)
	return bin, nil
}

// lookup reports the bin and allocation state of the block starting at a.
func (h *nodeHeap) lookup(a Addr) (bin int, allocated, ok bool) {
	off := int(a - h.start)
	if !buf.IsAligned(off, MinClass) {
		return 0, false, false
	}
	o := h.owner[off/MinClass]
	if o == 0 {
		return 0, false, false
	}
	return int(o&ownerBinMask) - 1, o&ownerAllocated != 0, true
}

// check verifies that the blocks cover the region exactly and that every
// free-list entry agrees with the owner index.
func (h *nodeHeap) check() error {
	covered := 0
	freeByBin := [BINS]int{}
	for g, o := range h.owner {
		if o == 0 {
			continue
		}
		bin := int(o&ownerBinMask) - 1
		if bin < 0 || bin >= BINS {
			return fmt.Errorf("node %d: granule %d has bad bin %d", h.id, g, bin)
		}
		covered += ClassSize(bin)
		if o&ownerAllocated == 0 {
			freeByBin[bin]++
		}
	}
	if covered != h.total {
		return fmt.Errorf("node %d: blocks cover %d of %d bytes", h.id, covered, h.total)
	}
	for bin := range BINS {
		n := 0
		for i := h.free[bin]; i != noDesc; i = h.descs.at(i).next {
			d := h.descs.at(i)
			b, allocated, ok := h.lookup(d.addr)
			if !ok || b != bin || allocated || d.size != ClassSize(bin) {
				return fmt.Errorf("node %d: bin %d list entry %s disagrees with owner index", h.id, bin, d.addr)
			}
			n++
			if n > h.count[bin] {
				return fmt.Errorf("node %d: bin %d list longer than count %d", h.id, bin, h.count[bin])
			}
		}
		if n != h.count[bin] || n != freeByBin[bin] {
			return fmt.Errorf("node %d: bin %d list has %d entries, count %d, index %d",
				h.id, bin, n, h.count[bin], freeByBin[bin])
		}
	}
	return nil
}
