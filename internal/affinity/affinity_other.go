//go:build !linux

package affinity

import "runtime"

// Default returns the platform pinner. Without affinity control every thread
// is reported on CPU 0 and Pin only checks its argument.
func Default() Pinner { return Fixed{} }

// Allowed returns every CPU the runtime can see.
func Allowed() ([]int, error) {
	cpus := make([]int, runtime.NumCPU())
	for i := range cpus {
		cpus[i] = i
	}
	return cpus, nil
}
