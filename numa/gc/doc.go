// Package gc provides a conservative mark-and-sweep collector layered on the
// NUMA allocator in numa/alloc.
//
// # Overview
//
// Objects allocated through a Collector are recorded in a side table mapping
// each object's address to its header (mark bit and size). Nothing is known
// about the objects' layout: any aligned word, anywhere the collector looks,
// that equals a tracked address is treated as a reference to it.
//
// # Roots
//
// A collection starts from three root sources:
//
//   - the shadow stack: words pushed by the mutator, scanned from the current
//     stack pointer up to the base recorded when the collector was created
//   - call-site words: values passed to Collect, standing in for the
//     registers of the calling frame
//   - root regions: memory registered with AddRoots, such as global tables
//
// Go's own stacks are never scanned. Addresses that must survive a
// collection have to be reachable from one of the sources above.
//
// # Cycle
//
//	roots := gather()             // stack, call-site words, regions
//	mark(roots)                   // worklist; scan [addr, addr+size) per object
//	sweep()                       // unmark survivors, Deallocate the rest
//
// A word that merely looks like a live address keeps that object alive for
// the cycle. This is the usual imprecision of conservative collection.
//
// # Allocation
//
// Alloc requests a block from the allocator. If the heap is exhausted it
// collects once and retries; a second failure panics with *FatalError.
// With Options.AutoCollect, a collection also runs before an allocation once
// 75% of the per-node heap size has been allocated since the last cycle.
//
// # Thread Safety
//
// A Collector is not safe for concurrent use. Collection is stop-the-world
// for the calling goroutine and assumes no other mutator is running.
package gc
