package alloc

// noDesc terminates free lists and the spare chain.
const noDesc int32 = -1

// freeBlock describes one free block of a node region. Descriptors live in a
// side arena so that the region itself carries no metadata.
type freeBlock struct {
	addr Addr
	size int
	next int32 // next descriptor in the owning list
}

// descArena hands out freeBlock records by index. Released records are chained
// through next and reused before the arena grows.
type descArena struct {
	recs  []freeBlock
	spare int32
	inuse int
}

func newDescArena(capacity int) descArena {
	return descArena{
		recs:  make([]freeBlock, 0, capacity),
		spare: noDesc,
	}
}

// get returns the index of a record initialised to (addr, size, next).
func (d *descArena) get(addr Addr, size int, next int32) int32 {
	d.inuse++
	if i := d.spare; i != noDesc {
		d.spare = d.recs[i].next
		d.recs[i] = freeBlock{addr: addr, size: size, next: next}
		return i
	}
	d.recs = append(d.recs, freeBlock{addr: addr, size: size, next: next})
	return int32(len(d.recs) - 1) //nolint:gosec // bounded by region granules
}

// put releases record i for reuse.
func (d *descArena) put(i int32) {
	d.inuse--
	d.recs[i] = freeBlock{next: d.spare}
	d.spare = i
}

func (d *descArena) at(i int32) *freeBlock {
	return &d.recs[i]
}
