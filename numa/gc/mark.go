package gc

import (
	"github.com/joshuapare/numakit/internal/buf"
	"github.com/joshuapare/numakit/numa/alloc"
)

// CycleStats describes one collection.
type CycleStats struct {
	Roots          int `json:"roots"`           // root words that named a tracked object
	Marked         int `json:"marked"`          // objects reached
	Live           int `json:"live"`            // objects kept by the sweep
	Collected      int `json:"collected"`       // objects reclaimed
	CollectedBytes int `json:"collected_bytes"` // requested bytes reclaimed
	FreeErrors     int `json:"free_errors"`     // reclaimed objects the allocator refused
}

// Collect runs a full stop-the-world collection: mark everything reachable
// from the roots, then reclaim every tracked object that was not reached.
//
// regs are the words the caller holds outside collector memory, typically
// the handful of addresses live in its local variables; each is treated as a
// root if it names a tracked object.
func (c *Collector) Collect(regs ...uintptr) CycleStats {
	if c.closed {
		return CycleStats{}
	}
	var cs CycleStats
	roots := c.gatherRoots(regs)
	cs.Roots = len(roots)
	cs.Marked = c.mark(roots)
	c.sweep(&cs)

	c.sinceLast = 0
	c.last = cs
	c.totals.Cycles++
	c.totals.Collected += int64(cs.Collected)
	c.totals.CollectedBytes += int64(cs.CollectedBytes)

	c.log.Debug("gc.cycle",
		"roots", cs.Roots,
		"marked", cs.Marked,
		"live", cs.Live,
		"collected", cs.Collected,
		"collected_bytes", cs.CollectedBytes,
	)
	return cs
}

// mark traces from roots with an explicit worklist. Each object is expanded
// at most once per cycle: the words of [addr, addr+size) that name tracked
// objects are pushed onto the worklist.
func (c *Collector) mark(roots []alloc.Addr) int {
	marked := 0
	worklist := roots
	for len(worklist) > 0 {
		addr := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		h, ok := c.traced[addr]
		if !ok {
			c.log.Debug("gc.mark", "addr", addr, "err", "no header")
			continue
		}
		if h.Marked {
			continue
		}
		h.Marked = true
		marked++

		buf.ScanWords(c.alloc.Bytes(addr, h.Size), func(_ int, w uintptr) bool {
			if _, ok := c.traced[alloc.Addr(w)]; ok {
				worklist = append(worklist, alloc.Addr(w))
			}
			return true
		})
	}
	return marked
}

// sweep visits every tracked object once. Marked objects are unmarked for the
// next cycle; the rest are forgotten and returned to the allocator.
func (c *Collector) sweep(cs *CycleStats) {
	for addr, h := range c.traced {
		if h.Marked {
			h.Marked = false
			cs.Live++
			continue
		}
		delete(c.traced, addr)
		if err := c.alloc.Deallocate(addr); err != nil {
			c.log.Error("gc.sweep", "addr", addr, "err", err)
			cs.FreeErrors++
		}
		cs.Collected++
		cs.CollectedBytes += h.Size
	}
}
