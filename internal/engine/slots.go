package engine

import "github.com/XI-Dimension/Ascend-PillarScatter/half"

// slotDepth is the staging pool capacity per worker. Two slots let the
// transfer of item i+1 overlap the compute of item i when execution is
// asynchronous; the sequential baseline cycles them without overlap
// and is semantically identical.
const slotDepth = 2

// slot is an ephemeral holder for one item in transit: the feature
// vector plus the oversized coordinate block. Slots are owned
// exclusively by the worker that allocated them and are reused across
// items, never across invocations.
type slot struct {
	feat  []half.F16 // Channels elements
	coord []uint32   // coordBlock elements; only the first 4 meaningful
	ready bool
}

// slotPool is a fixed ring of slotDepth pre-allocated slots. acquire
// and release are not thread-safe; a pool belongs to a single worker.
type slotPool struct {
	slots [slotDepth]*slot
	next  int
}

// newSlotPool allocates the staging slots once, at worker setup.
func newSlotPool(channels int) *slotPool {
	p := &slotPool{}
	for i := range p.slots {
		p.slots[i] = &slot{
			feat:  make([]half.F16, channels),
			coord: make([]uint32, coordBlock),
		}
	}
	return p
}

// acquire returns the next slot in the ring, cleared of its ready
// mark. With the sequential transfer-compute loop the previous
// occupant has always been consumed by the time the ring wraps.
func (p *slotPool) acquire() *slot {
	s := p.slots[p.next]
	p.next = (p.next + 1) % slotDepth
	s.ready = false
	return s
}

// release returns a consumed slot to the pool.
func (p *slotPool) release(s *slot) {
	s.ready = false
}
