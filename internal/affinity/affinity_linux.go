//go:build linux

package affinity

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// System pins threads with sched_setaffinity and locates them with getcpu.
type System struct{}

// Default returns the platform pinner.
func Default() Pinner { return System{} }

// CurrentCPU returns the CPU the calling thread is executing on.
func (System) CurrentCPU() (int, error) {
	var cpu uint32
	if _, _, errno := unix.RawSyscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), 0, 0); errno != 0 {
		return -1, fmt.Errorf("affinity: getcpu: %w", errno)
	}
	return int(cpu), nil
}

// Pin restricts the calling thread to cpus until restore is called.
func (System) Pin(cpus []int) (func() error, error) {
	if len(cpus) == 0 {
		return nil, ErrNoCPUs
	}
	runtime.LockOSThread()

	var saved unix.CPUSet
	if err := unix.SchedGetaffinity(0, &saved); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("affinity: get mask: %w", err)
	}

	var set unix.CPUSet
	for _, cpu := range cpus {
		set.Set(cpu)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("affinity: set mask %v: %w", cpus, err)
	}

	return func() error {
		defer runtime.UnlockOSThread()
		if err := unix.SchedSetaffinity(0, &saved); err != nil {
			return fmt.Errorf("affinity: restore mask: %w", err)
		}
		return nil
	}, nil
}

// Allowed returns the CPUs in the calling thread's current mask.
func Allowed() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, err
	}
	cpus := make([]int, 0, set.Count())
	for cpu := 0; len(cpus) < set.Count(); cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}
