package alloc

import "errors"

var (
	// ErrResourceExhausted indicates that the size class's free list is empty.
	ErrResourceExhausted = errors.New("alloc: size class exhausted")

	// ErrBackingFailure indicates that reserving or releasing backing memory failed.
	ErrBackingFailure = errors.New("alloc: backing store failure")

	// ErrUnknownAddress indicates an address outside every node region and raw span.
	ErrUnknownAddress = errors.New("alloc: unknown address")

	// ErrBadAddress indicates an address inside a node region that is not the start of a block.
	ErrBadAddress = errors.New("alloc: address is not a block start")

	// ErrDoubleFree indicates an attempt to free a block that is already free.
	ErrDoubleFree = errors.New("alloc: block already free")

	// ErrBadSize indicates a zero or negative allocation size.
	ErrBadSize = errors.New("alloc: size must be positive")

	// ErrHeapSize indicates a per-node heap size that cannot be partitioned into bins.
	ErrHeapSize = errors.New("alloc: heap size must be a positive multiple of 128")

	// ErrBadNode indicates a node index outside the topology.
	ErrBadNode = errors.New("alloc: node out of range")

	// ErrClosed indicates use of an allocator after Close.
	ErrClosed = errors.New("alloc: allocator closed")
)
