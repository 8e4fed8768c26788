package main

import (
	"fmt"
	"os"

	"github.com/joshuapare/numakit/internal/affinity"
	"github.com/joshuapare/numakit/internal/topology"
	"github.com/joshuapare/numakit/numa/alloc"
)

func defaultSysfsHint() string {
	return topology.DefaultSysfsRoot + " ($" + topology.EnvSysfsRoot + ")"
}

// loadTopology resolves the topology selected by the global flags.
func loadTopology() (topology.Provider, error) {
	switch {
	case simNodes > 0:
		table := make([][]int, simNodes)
		for n := range table {
			table[n] = []int{n}
		}
		return topology.NewStatic(table)
	case sysfsRoot != "":
		t, err := topology.FromFS(os.DirFS(sysfsRoot))
		if err != nil {
			return nil, fmt.Errorf("read topology from %s: %w", sysfsRoot, err)
		}
		return t, nil
	default:
		return topology.Detect(), nil
	}
}

// allocOptions builds allocator options from the global flags. Simulated
// nodes never pin: their CPU numbers are synthetic.
func allocOptions() (alloc.Options, error) {
	topo, err := loadTopology()
	if err != nil {
		return alloc.Options{}, err
	}
	opts := alloc.DefaultOptions()
	opts.HeapSize = heapSize
	opts.Topology = topo
	if simNodes > 0 {
		opts.Affinity = affinity.Fixed{}
		opts.PinAllocations = false
	}
	return opts, nil
}

func openAllocator() (*alloc.Allocator, error) {
	opts, err := allocOptions()
	if err != nil {
		return nil, err
	}
	printVerbose("Reserving %d bytes on %d node(s)\n", opts.HeapSize, opts.Topology.NumNodes())
	a, err := alloc.New(opts)
	if err != nil {
		return nil, fmt.Errorf("init allocator: %w", err)
	}
	return a, nil
}
