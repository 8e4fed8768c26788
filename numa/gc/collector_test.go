package gc

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/numakit/internal/buf"
	"github.com/joshuapare/numakit/numa/alloc"
)

const testHeap = 16 << 10

func TestCollect_ReachableThroughStack(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	x, _ := c.Alloc(64)
	y, _ := c.Alloc(32)
	link(t, c, x, y)
	push(t, c, x)

	cs := c.Collect()
	require.Equal(t, 1, cs.Roots)
	require.Equal(t, 2, cs.Marked)
	require.Equal(t, 2, cs.Live)
	require.Zero(t, cs.Collected)
	require.True(t, c.Tracked(x))
	require.True(t, c.Tracked(y))

	_, err := c.Stack().Pop()
	require.NoError(t, err)

	cs = c.Collect()
	require.Equal(t, 2, cs.Collected)
	require.Equal(t, 96, cs.CollectedBytes)
	require.False(t, c.Tracked(x))
	require.False(t, c.Tracked(y))
	require.Zero(t, c.Len())
}

func TestCollect_MarksAreClearedAfterSweep(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	x, _ := c.Alloc(16)
	push(t, c, x)
	c.Collect()

	h, ok := c.Header(x)
	require.True(t, ok)
	require.False(t, h.Marked)
	require.Equal(t, 16, h.Size)
}

func TestCollect_Idempotent(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	x, _ := c.Alloc(16)
	c.Alloc(16)
	push(t, c, x)

	first := c.Collect()
	require.Equal(t, 1, first.Collected)

	second := c.Collect()
	require.Zero(t, second.Collected)
	require.Equal(t, 1, second.Live)
	require.Equal(t, 2, c.Stats().Cycles)
}

func TestCollect_UnreachableCycle(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	x, _ := c.Alloc(16)
	y, _ := c.Alloc(16)
	link(t, c, x, y)
	link(t, c, y, x)

	cs := c.Collect()
	require.Zero(t, cs.Roots)
	require.Equal(t, 2, cs.Collected)
	require.Zero(t, c.Len())
}

func TestCollect_ReachableCycleTerminates(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	x, _ := c.Alloc(16)
	y, _ := c.Alloc(16)
	link(t, c, x, y)
	link(t, c, y, x)
	push(t, c, y)

	cs := c.Collect()
	require.Equal(t, 2, cs.Marked)
	require.Zero(t, cs.Collected)
}

func TestCollect_LongChain(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	const n = 100
	addrs := make([]alloc.Addr, n)
	for i := range addrs {
		addrs[i], _ = c.Alloc(16)
		if i > 0 {
			link(t, c, addrs[i-1], addrs[i])
		}
	}
	push(t, c, addrs[0])

	cs := c.Collect()
	require.Equal(t, n, cs.Marked)
	require.Zero(t, cs.Collected)

	// Cut the chain in the middle.
	link(t, c, addrs[n/2-1], 0)
	cs = c.Collect()
	require.Equal(t, n/2, cs.Live)
	require.Equal(t, n/2, cs.Collected)
	require.True(t, c.Tracked(addrs[n/2-1]))
	require.False(t, c.Tracked(addrs[n/2]))
}

func TestCollect_RegisterWords(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	x, _ := c.Alloc(16)
	y, _ := c.Alloc(16)

	cs := c.Collect(uintptr(x), 12345)
	require.Equal(t, 1, cs.Roots)
	require.True(t, c.Tracked(x))
	require.False(t, c.Tracked(y))
}

func TestCollect_RootRegions(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	x, _ := c.Alloc(16)
	globals := make([]byte, 4*buf.WordSize)
	buf.PutWord(globals, 2*buf.WordSize, uintptr(x))

	id := c.AddRoots(globals)
	c.Collect()
	require.True(t, c.Tracked(x))

	c.RemoveRoots(id)
	c.Collect()
	require.False(t, c.Tracked(x))
}

func TestCollect_InteriorWordsDoNotRoot(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	x, _ := c.Alloc(64)
	push(t, c, x+alloc.Addr(buf.WordSize))

	cs := c.Collect()
	require.Zero(t, cs.Roots)
	require.False(t, c.Tracked(x))
}

func TestCollect_StaleWordKeepsObjectAlive(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	x, b := c.Alloc(64)
	y, _ := c.Alloc(16)
	push(t, c, x)

	// An integer field that happens to equal y's address.
	buf.PutWord(b, 3*buf.WordSize, uintptr(y))
	c.Collect()
	require.True(t, c.Tracked(y))
}

func TestCollect_OnlyScansRequestedSize(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	// 20 bytes land in a 32-byte block; the tail past the request is not
	// part of the object.
	x, b := c.Alloc(20)
	y, _ := c.Alloc(16)
	push(t, c, x)

	full := b[:cap(b)]
	buf.PutWord(full, 3*buf.WordSize, uintptr(y))
	c.Collect()
	require.False(t, c.Tracked(y))
}

func TestCollect_RestoresBins(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)
	a := c.Allocator()

	var before [alloc.BINS]int
	for bin := range alloc.BINS {
		before[bin] = a.BinLen(0, bin)
	}

	for _, size := range []int{16, 32, 100, 512, 2000, 24} {
		c.Alloc(size)
	}
	require.Less(t, a.BinLen(0, 0), before[0])

	cs := c.Collect()
	require.Equal(t, 6, cs.Collected)
	for bin := range alloc.BINS {
		require.Equal(t, before[bin], a.BinLen(0, bin), "bin %d", bin)
	}
	require.NoError(t, a.CheckInvariants())
}

func TestCollect_RawObjects(t *testing.T) {
	opts, store := testOptions(t, 1, testHeap)
	c, err := New(opts)
	require.NoError(t, err)
	defer c.Close()

	base := store.Outstanding()
	x, _ := c.Alloc(3 * alloc.MaxClass)
	require.Equal(t, base+1, store.Outstanding())
	_, bin, allocated, ok := c.Allocator().Owner(x)
	require.True(t, ok)
	require.True(t, allocated)
	require.Equal(t, alloc.RawBin, bin)

	c.Collect()
	require.False(t, c.Tracked(x))
	require.Equal(t, base, store.Outstanding())
}

func TestAlloc_ZeroSizeRoundsUpToWord(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	x, b := c.Alloc(0)
	require.Len(t, b, buf.WordSize)
	h, ok := c.Header(x)
	require.True(t, ok)
	require.Equal(t, buf.WordSize, h.Size)
}

func TestAlloc_CollectsAndRetriesOnExhaustion(t *testing.T) {
	// 1024 bytes per node leaves exactly one 128-byte block.
	c := newTestCollector(t, 1, 1024)
	require.Equal(t, 1, c.Allocator().BinLen(0, 3))

	first, _ := c.Alloc(128)
	second, _ := c.Alloc(128)

	require.Equal(t, first, second, "the reclaimed block is reused")
	require.Equal(t, 1, c.Len())
	require.Equal(t, 1, c.Stats().Cycles)
	require.EqualValues(t, 1, c.Stats().Retries)
	require.Equal(t, 1, c.LastCycle().Collected)
}

func TestAlloc_PanicsWhenStillExhausted(t *testing.T) {
	c := newTestCollector(t, 1, 1024)

	x, _ := c.Alloc(128)
	push(t, c, x)

	var fatal *FatalError
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r)
			var ok bool
			fatal, ok = r.(*FatalError)
			require.True(t, ok, "panic value %T", r)
		}()
		c.Alloc(128)
	}()

	require.Equal(t, 128, fatal.Size)
	require.ErrorIs(t, fatal, ErrTrackedExhausted)
	require.ErrorIs(t, fatal, alloc.ErrResourceExhausted)
	require.True(t, c.Tracked(x))
	require.Equal(t, 1, c.Len())
}

func TestTryAlloc_ReturnsError(t *testing.T) {
	c := newTestCollector(t, 1, 1024)

	x, _ := c.Alloc(128)
	push(t, c, x)

	_, _, err := c.TryAlloc(128)
	require.ErrorIs(t, err, ErrTrackedExhausted)
	require.Equal(t, 1, c.Stats().Cycles)
	require.Zero(t, c.Stats().Retries)
}

func TestAlloc_AutoCollect(t *testing.T) {
	for _, tc := range []struct {
		name   string
		auto   bool
		cycles int
	}{
		{"disabled", false, 0},
		{"enabled", true, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts, _ := testOptions(t, 1, 1024)
			opts.AutoCollect = tc.auto
			c, err := New(opts)
			require.NoError(t, err)
			defer c.Close()

			// 3 KiB since the last cycle is over the 768-byte threshold.
			first, _ := c.Alloc(3 << 10)
			c.Alloc(16)

			assert.Equal(t, tc.cycles, c.Stats().Cycles)
			assert.Equal(t, !tc.auto, c.Tracked(first))
		})
	}
}

func TestAlloc_AutoCollectResetsCounter(t *testing.T) {
	opts, _ := testOptions(t, 1, 1024)
	opts.AutoCollect = true
	c, err := New(opts)
	require.NoError(t, err)
	defer c.Close()

	c.Alloc(3 << 10)
	c.Alloc(16) // collects
	c.Alloc(16)
	c.Alloc(16)
	require.Equal(t, 1, c.Stats().Cycles)
}

func TestAlloc_InterleavedPolicy(t *testing.T) {
	opts, _ := testOptions(t, 2, testHeap)
	opts.Policy = PolicyInterleaved
	c, err := New(opts)
	require.NoError(t, err)
	defer c.Close()

	var nodes []int
	for range 4 {
		x, _ := c.Alloc(16)
		node, _, _, ok := c.Allocator().Owner(x)
		require.True(t, ok)
		nodes = append(nodes, node)
	}
	require.Equal(t, []int{0, 1, 0, 1}, nodes)
}

func TestAlloc_LocalPolicy(t *testing.T) {
	c := newTestCollector(t, 2, testHeap)

	for range 3 {
		x, _ := c.Alloc(16)
		node, _, _, ok := c.Allocator().Owner(x)
		require.True(t, ok)
		require.Zero(t, node)
	}
}

type listNode struct {
	Next  alloc.Addr
	Value int64
}

func TestNewObject(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	head := NewObject[listNode](c)
	head.Value = 1
	tail := NewObject[listNode](c)
	tail.Value = 2
	head.Next = AddrOf(tail)
	push(t, c, AddrOf(head))

	c.Collect()
	require.True(t, c.Tracked(AddrOf(tail)))
	require.EqualValues(t, 2, tail.Value)

	h, ok := c.Header(AddrOf(head))
	require.True(t, ok)
	require.Equal(t, 16, h.Size)

	require.Same(t, head, ObjectAt[listNode](c, AddrOf(head)))
	ObjectAt[listNode](c, AddrOf(head)).Next = 0
	require.Nil(t, ObjectAt[listNode](c, 0), "not collector memory")
	c.Collect()
	require.False(t, c.Tracked(AddrOf(tail)))
	require.True(t, c.Tracked(AddrOf(head)))
}

func TestStats_Counts(t *testing.T) {
	c := newTestCollector(t, 1, testHeap)

	c.Alloc(16)
	c.Alloc(100)
	c.Collect()

	s := c.Stats()
	require.EqualValues(t, 2, s.Allocations)
	require.EqualValues(t, 116, s.AllocatedBytes)
	require.EqualValues(t, 2, s.Collected)
	require.EqualValues(t, 116, s.CollectedBytes)
}

func TestNew_SuppliedAllocatorIsNotClosed(t *testing.T) {
	opts, _ := testOptions(t, 1, testHeap)
	a, err := alloc.New(opts.Alloc)
	require.NoError(t, err)
	defer a.Close()

	opts.Allocator = a
	c, err := New(opts)
	require.NoError(t, err)
	c.Alloc(16)
	require.NoError(t, c.Close())

	_, _, err = a.AllocLocal(16)
	require.NoError(t, err)
}

func TestNew_StackReservationFailure(t *testing.T) {
	opts, store := testOptions(t, 1, testHeap)
	store.Limit = testHeap
	opts.StackSize = 4 << 10

	_, err := New(opts)
	require.Error(t, err)
	require.Zero(t, store.Outstanding(), "allocator released on failure")
}

func TestClose(t *testing.T) {
	opts, store := testOptions(t, 2, testHeap)
	c, err := New(opts)
	require.NoError(t, err)

	x, _ := c.Alloc(16)
	push(t, c, x)
	c.Alloc(4 << 10)

	require.NoError(t, c.Close())
	require.Zero(t, store.Outstanding())
	require.NoError(t, c.Close())

	_, _, err = c.TryAlloc(16)
	require.ErrorIs(t, err, ErrClosed)
	require.Zero(t, c.Collect())
}

func TestCollect_LogsCycle(t *testing.T) {
	var out bytes.Buffer
	opts, _ := testOptions(t, 1, testHeap)
	opts.Logger = slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, err := New(opts)
	require.NoError(t, err)
	defer c.Close()

	c.Alloc(16)
	c.Collect()
	require.Contains(t, out.String(), "gc.cycle")
	require.Contains(t, out.String(), "collected=1")
}

func TestFatalError(t *testing.T) {
	err := &FatalError{Size: 64, Err: alloc.ErrResourceExhausted}
	require.Contains(t, err.Error(), "64 bytes")
	require.True(t, errors.Is(err, alloc.ErrResourceExhausted))
}

func TestPolicy_String(t *testing.T) {
	require.Equal(t, "local", PolicyLocal.String())
	require.Equal(t, "interleaved", PolicyInterleaved.String())
	require.Equal(t, "unknown", Policy(9).String())
}
