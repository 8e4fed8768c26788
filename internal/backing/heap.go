package backing

import (
	"sync"
	"unsafe"
)

// Heap is a backing store over ordinary Go allocations. It is used where
// anonymous mappings are unavailable and by tests that need a store they can
// inspect. Reserved slices are kept reachable until released.
type Heap struct {
	mu   sync.Mutex
	live map[uintptr][]byte

	// Limit caps the total bytes outstanding; 0 means unlimited.
	Limit int
	used  int
}

// NewHeap creates an empty Go-heap backing store.
func NewHeap() *Heap {
	return &Heap{live: make(map[uintptr][]byte)}
}

// Reserve allocates size zeroed bytes, aligned to a page boundary.
func (h *Heap) Reserve(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Limit > 0 && h.used+size > h.Limit {
		return nil, ErrExhausted
	}

	raw := make([]byte, size+PageSize)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	pad := int((uintptr(PageSize) - base%uintptr(PageSize)) % uintptr(PageSize))
	b := raw[pad : pad+size : pad+size]

	h.live[uintptr(unsafe.Pointer(unsafe.SliceData(b)))] = raw
	h.used += size
	return b, nil
}

// Release forgets a region returned by Reserve. Unknown regions are ignored.
func (h *Heap) Release(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	key := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	if _, ok := h.live[key]; !ok {
		return nil
	}
	delete(h.live, key)
	h.used -= len(b)
	return nil
}

// ForcePhysical touches every page of b.
func (h *Heap) ForcePhysical(b []byte) error {
	touchPages(b)
	return nil
}

// Outstanding returns the number of regions reserved and not yet released.
func (h *Heap) Outstanding() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}
