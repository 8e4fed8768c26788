package alloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/numakit/internal/backing"
	"github.com/joshuapare/numakit/internal/topology"
)

// recordingPinner reports a settable CPU and records every pin request.
type recordingPinner struct {
	mu   sync.Mutex
	cpu  int
	pins [][]int
}

func (p *recordingPinner) CurrentCPU() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cpu, nil
}

func (p *recordingPinner) Pin(cpus []int) (func() error, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pins = append(p.pins, cpus)
	return func() error { return nil }, nil
}

func (p *recordingPinner) setCPU(cpu int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cpu = cpu
}

// testTopology returns a topology with four CPUs per node.
func testTopology(t testing.TB, nodes int) *topology.Static {
	t.Helper()
	table := make([][]int, nodes)
	for n := range table {
		for c := range 4 {
			table[n] = append(table[n], n*4+c)
		}
	}
	topo, err := topology.NewStatic(table)
	require.NoError(t, err)
	return topo
}

type testEnv struct {
	a     *Allocator
	store *backing.Heap
	pin   *recordingPinner
}

// newTestAllocator builds an allocator over Go-heap backing with the given
// node count and per-node heap size.
func newTestAllocator(t testing.TB, nodes, heapSize int) testEnv {
	t.Helper()
	store := backing.NewHeap()
	pin := &recordingPinner{}
	a, err := New(Options{
		HeapSize:       heapSize,
		Topology:       testTopology(t, nodes),
		Backing:        store,
		Affinity:       pin,
		PinAllocations: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return testEnv{a: a, store: store, pin: pin}
}

// binLens snapshots the free-list length of every bin on node.
func binLens(t testing.TB, a *Allocator, node int) [BINS]int {
	t.Helper()
	var lens [BINS]int
	for bin := range BINS {
		lens[bin] = a.BinLen(node, bin)
	}
	return lens
}

// requireInNode asserts that addr lies inside node's heap.
func requireInNode(t testing.TB, a *Allocator, node int, addr Addr) {
	t.Helper()
	ns, err := a.NodeStats(node)
	require.NoError(t, err)
	require.GreaterOrEqual(t, addr, ns.Start)
	require.Less(t, addr, ns.Start+Addr(ns.Size))
}
