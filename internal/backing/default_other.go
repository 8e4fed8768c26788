//go:build !unix

package backing

// Default returns the platform backing store.
func Default() Store {
	return NewHeap()
}
