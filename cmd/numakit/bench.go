package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/numakit/numa/alloc"
)

var (
	benchSize       int
	benchCount      int
	benchMode       string
	benchGoroutines int
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVar(&benchSize, "size", 64, "Bytes per allocation")
	cmd.Flags().IntVar(&benchCount, "count", 10000, "Allocations per goroutine")
	cmd.Flags().StringVar(&benchMode, "mode", "local", "Placement: local or interleaved")
	cmd.Flags().IntVar(&benchGoroutines, "goroutines", 1, "Concurrent allocating goroutines")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Time allocation and deallocation",
		Long: `The bench command allocates --count blocks of --size bytes in each of
--goroutines goroutines, then frees them, and reports the rate. Allocations
that find their bin empty are counted, not retried.

Example:
  numakit bench --size 128 --count 100000
  numakit bench --mode interleaved --goroutines 8 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

type benchResult struct {
	Mode       string        `json:"mode"`
	Size       int           `json:"size"`
	Goroutines int           `json:"goroutines"`
	Allocated  int           `json:"allocated"`
	Exhausted  int           `json:"exhausted"`
	AllocTime  time.Duration `json:"alloc_ns"`
	FreeTime   time.Duration `json:"free_ns"`
	PerNode    []int         `json:"per_node"`
}

func runBench() error {
	if benchSize <= 0 || benchCount <= 0 || benchGoroutines <= 0 {
		return fmt.Errorf("size, count and goroutines must be positive")
	}

	a, err := openAllocator()
	if err != nil {
		return err
	}
	defer a.Close()

	var allocFn func(int) (alloc.Addr, []byte, error)
	switch benchMode {
	case "local":
		allocFn = a.AllocLocal
	case "interleaved":
		allocFn = a.AllocInterleaved
	default:
		return fmt.Errorf("unknown mode %q (want local or interleaved)", benchMode)
	}

	res := benchResult{
		Mode:       benchMode,
		Size:       benchSize,
		Goroutines: benchGoroutines,
		PerNode:    make([]int, a.NumNodes()),
	}
	addrs := make([][]alloc.Addr, benchGoroutines)
	exhausted := make([]int, benchGoroutines)
	errs := make([]error, benchGoroutines)

	start := time.Now()
	var wg sync.WaitGroup
	for g := range benchGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range benchCount {
				addr, _, err := allocFn(benchSize)
				if errors.Is(err, alloc.ErrResourceExhausted) {
					exhausted[g]++
					continue
				}
				if err != nil {
					errs[g] = err
					return
				}
				addrs[g] = append(addrs[g], addr)
			}
		}()
	}
	wg.Wait()
	res.AllocTime = time.Since(start)
	if err := errors.Join(errs...); err != nil {
		return err
	}

	for g := range addrs {
		res.Allocated += len(addrs[g])
		res.Exhausted += exhausted[g]
		for _, addr := range addrs[g] {
			if node, _, _, ok := a.Owner(addr); ok {
				res.PerNode[node]++
			}
		}
	}

	start = time.Now()
	for _, list := range addrs {
		for _, addr := range list {
			if err := a.Deallocate(addr); err != nil {
				return fmt.Errorf("free %s: %w", addr, err)
			}
		}
	}
	res.FreeTime = time.Since(start)

	if jsonOut {
		return printJSON(res)
	}
	printInfo("%s %s, size %d, %d goroutine(s)\n", label("Mode"), res.Mode, res.Size, res.Goroutines)
	printInfo("%s %d, %s %s\n", label("Allocated"), res.Allocated, label("Exhausted"), countStyle(res.Exhausted))
	printInfo("%s %s (%s/op)\n", label("Alloc"), res.AllocTime, perOp(res.AllocTime, res.Allocated+res.Exhausted))
	printInfo("%s  %s (%s/op)\n", label("Free"), res.FreeTime, perOp(res.FreeTime, res.Allocated))
	for node, n := range res.PerNode {
		printInfo("  %s %d\n", styled(nodeStyle, fmt.Sprintf("node%d:", node)), n)
	}
	return nil
}

func perOp(d time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return d / time.Duration(n)
}
