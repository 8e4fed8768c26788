package gc

import (
	"github.com/joshuapare/numakit/internal/buf"
	"github.com/joshuapare/numakit/numa/alloc"
)

// RootID identifies a registered root region.
type RootID int

// AddRoots registers region as a source of roots, such as a block of global
// words. Every aligned word of region is scanned on each collection until
// RemoveRoots is called. The collector keeps region reachable meanwhile.
func (c *Collector) AddRoots(region []byte) RootID {
	c.nextRoot++
	c.regions[c.nextRoot] = region
	return c.nextRoot
}

// RemoveRoots unregisters a region added with AddRoots.
func (c *Collector) RemoveRoots(id RootID) {
	delete(c.regions, id)
}

// gatherRoots collects every word that names a tracked object from the live
// shadow stack, the call-site register words and the registered regions.
// Any word equal to a tracked address counts, pointer or not.
func (c *Collector) gatherRoots(regs []uintptr) []alloc.Addr {
	var roots []alloc.Addr
	test := func(_ int, w uintptr) bool {
		if _, ok := c.traced[alloc.Addr(w)]; ok {
			roots = append(roots, alloc.Addr(w))
		}
		return true
	}

	buf.ScanWords(c.stack.live(), test)
	fromStack := len(roots)

	for _, w := range regs {
		test(0, w)
	}
	fromRegs := len(roots) - fromStack

	for _, region := range c.regions {
		buf.ScanWords(region, test)
	}

	c.log.Debug("gc.roots",
		"stack_words", c.stack.Depth(),
		"stack", fromStack,
		"registers", fromRegs,
		"regions", len(roots)-fromStack-fromRegs,
	)
	return roots
}
