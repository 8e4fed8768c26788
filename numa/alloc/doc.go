// Package alloc provides a NUMA-aware allocator with segregated free lists.
//
// # Overview
//
// One heap is reserved per NUMA node. While a node's heap is faulted in, the
// initializing thread is pinned to that node's CPUs, so first-touch placement
// puts the pages on the node. Each heap is then split into BINS equal
// segments and every segment is filled with blocks of one size class:
//
//	Bin 0:   16 bytes
//	Bin 1:   32 bytes
//	Bin 2:   64 bytes
//	Bin 3:  128 bytes
//	Bin 4:  256 bytes
//	Bin 5:  512 bytes
//	Bin 6: 1024 bytes
//	Bin 7: 2048 bytes
//	Raw:  > 2048 bytes, served directly by the backing store
//
// Space a segment cannot fit another block of its class into is carved into
// 16-byte blocks, so the blocks of a node always cover its heap exactly.
//
// # Allocation
//
//   - AllocLocal: serve from the node of the CPU the caller runs on
//   - AllocInterleaved: rotate across nodes, one node per call
//   - AllocOnNode: serve from an explicit node
//
// A request is rounded up to its class and popped from the head of the
// class's free list. Requests larger than the largest class bypass the bins.
//
// # Deallocation
//
// Blocks carry no header. Deallocate resolves the owning node from the
// address range of each heap and the bin from a one-byte-per-16-bytes block
// index kept beside the heap. The index also rejects interior pointers and
// double frees.
//
// # Usage Example
//
//	a, err := alloc.New(alloc.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	addr, b, err := a.AllocLocal(100) // served from the 128-byte class
//	if err != nil {
//	    return err
//	}
//	copy(b, payload)
//	err = a.Deallocate(addr)
//
// # Thread Safety
//
// Allocation and deallocation may be called from any goroutine. Each node
// heap is guarded by its own mutex. Close must not race with other calls.
package alloc
