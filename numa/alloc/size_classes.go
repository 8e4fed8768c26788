package alloc

const (
	// BINS is the number of segregated size classes per node.
	BINS = 8

	// RawBin is the sentinel bin index for requests larger than every class.
	// Such requests bypass the pool and are served from the backing store.
	RawBin = BINS

	// MinClass is the size of the smallest class and the block alignment.
	MinClass = 16

	// MaxClass is the size of the largest pooled class.
	MaxClass = MinClass << (BINS - 1)

	// heapQuantum is the granularity a per-node heap size must respect so that
	// every bin segment is a whole number of MinClass granules.
	heapQuantum = BINS * MinClass
)

// ClassSize returns the fixed block size of bin: 16 × 2^bin.
func ClassSize(bin int) int {
	return MinClass << bin
}

// BinIndex returns the smallest bin whose class size is >= size, or RawBin
// when size exceeds MaxClass.
func BinIndex(size int) int {
	for bin := range BINS {
		if size <= ClassSize(bin) {
			return bin
		}
	}
	return RawBin
}
