package gc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/numakit/internal/affinity"
	"github.com/joshuapare/numakit/internal/backing"
	"github.com/joshuapare/numakit/internal/buf"
	"github.com/joshuapare/numakit/internal/topology"
	"github.com/joshuapare/numakit/numa/alloc"
)

// testOptions returns collector options over Go-heap backing, a static
// topology of nodes×2 CPUs and a thread that always reports CPU 0.
func testOptions(t testing.TB, nodes, heapSize int) (Options, *backing.Heap) {
	t.Helper()
	table := make([][]int, nodes)
	for n := range table {
		table[n] = []int{2 * n, 2*n + 1}
	}
	topo, err := topology.NewStatic(table)
	require.NoError(t, err)

	store := backing.NewHeap()
	opts := DefaultOptions()
	opts.Alloc = alloc.Options{
		HeapSize: heapSize,
		Topology: topo,
		Backing:  store,
		Affinity: affinity.Fixed{CPU: 0},
	}
	opts.StackSize = 4 << 10
	return opts, store
}

func newTestCollector(t testing.TB, nodes, heapSize int) *Collector {
	t.Helper()
	opts, _ := testOptions(t, nodes, heapSize)
	c, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// link stores to as the first word of from.
func link(t testing.TB, c *Collector, from, to alloc.Addr) {
	t.Helper()
	require.True(t, buf.PutWord(c.Allocator().Bytes(from, buf.WordSize), 0, uintptr(to)))
}

func push(t testing.TB, c *Collector, a alloc.Addr) {
	t.Helper()
	require.NoError(t, c.Stack().Push(uintptr(a)))
}
