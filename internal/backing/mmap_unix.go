//go:build unix

package backing

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Mmap reserves anonymous private mappings. Pages are zero-filled by the
// kernel and only backed physically once touched.
type Mmap struct {
	// HugePages asks the kernel to back reservations with transparent huge
	// pages where supported. Failure to apply the advice is ignored.
	HugePages bool
}

// Default returns the platform backing store.
func Default() Store {
	return &Mmap{}
}

// Reserve maps size bytes of zeroed, read-write anonymous memory.
func (m *Mmap) Reserve(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	if m.HugePages {
		_ = adviseHuge(data)
	}
	return data, nil
}

// Release unmaps a region returned by Reserve.
func (m *Mmap) Release(b []byte) error {
	if b == nil {
		return nil
	}
	err := unix.Munmap(b)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

// ForcePhysical faults in every page of b on the calling thread's node.
func (m *Mmap) ForcePhysical(b []byte) error {
	touchPages(b)
	return nil
}
