// Package engine implements the parallel scatter core: partitioned
// workers moving feature vectors from the source buffers into the
// dense destination grid through per-worker staging slots.
//
// The engine performs no allocation of the three external buffers and
// no locking on the destination: workers write disjoint cells by
// construction of the input data (unique coordinate per item, enforced
// upstream). Within a worker, items are processed strictly in
// ascending order; across workers there is no ordering guarantee.
package engine

import (
	"github.com/XI-Dimension/Ascend-PillarScatter/half"
	"github.com/XI-Dimension/Ascend-PillarScatter/internal/partition"
	"github.com/XI-Dimension/Ascend-PillarScatter/internal/view"
)

const (
	// coordFields is the number of uint32 fields per coordinate record:
	// [batch, y, x, reserved].
	coordFields = 4

	// coordBlock is the number of uint32 elements fetched per record.
	// Oversized relative to the 4 meaningful fields so that each record
	// is one aligned block read instead of four narrow reads.
	coordBlock = 8

	// CoordSlack is the minimum number of extra trailing uint32
	// elements the coordinate buffer must provide past its logical
	// N*coordFields length, so the final record's block read stays
	// inside the allocation.
	CoordSlack = coordBlock
)

// Config carries one scatter invocation's fixed parameters.
type Config struct {
	// Height, Width, Channels describe the NHWC destination grid.
	Height   int
	Width    int
	Channels int

	// Workers is the number of parallel workers. Must be >= 1.
	Workers int

	// Trusting disables per-item coordinate validation. When false
	// (defensive mode) items with a non-zero batch or an out-of-range
	// coordinate are skipped and counted.
	Trusting bool
}

// Run scatters count items from features and coords into grid and
// returns the number of rejected items (always 0 in trusting mode).
//
// Preconditions: features holds at least count*Channels elements,
// coords holds at least count*coordFields+CoordSlack elements, grid
// holds exactly Height*Width*Channels elements and is zero-filled.
// The only returned errors are violations of these sizing
// preconditions, detected during view construction.
func Run(cfg Config, features []half.F16, coords []uint32, count int, grid []half.F16) (rejected int, err error) {
	if count <= 0 {
		return 0, nil
	}

	// Build every worker before launching any: a sizing violation must
	// surface as an error, not as a half-completed run.
	workers := make([]*worker, cfg.Workers)
	for id := range cfg.Workers {
		w, err := newWorker(cfg, id, features, coords, count, grid)
		if err != nil {
			return 0, err
		}
		workers[id] = w
	}

	pool := newWorkerPool(cfg.Workers)
	defer pool.Close()

	work := make([]func(), cfg.Workers)
	for id, w := range workers {
		work[id] = w.run
	}
	pool.ExecuteAll(work)

	for _, w := range workers {
		rejected += w.rejected
	}
	return rejected, nil
}

// worker drives one partition of the scatter: a staged transfer
// pipeline feeding a compute stage, strictly sequential within the
// worker.
type worker struct {
	cfg Config
	id  int

	// part is this worker's item range, computed once at construction
	// and immutable thereafter.
	part partition.Range

	// feat and coord are views over this worker's slice of the source
	// buffers, addressed by local item index.
	feat  view.View[half.F16]
	coord view.View[uint32]

	// dst is the shared destination grid. All workers hold identical
	// views; writes are expected to be disjoint.
	dst view.View[half.F16]

	slots *slotPool

	// rejected counts items skipped under defensive validation.
	rejected int
}

// newWorker plans the partition for worker id and constructs its
// buffer views. The coordinate view carries CoordSlack trailing
// elements so the final record's block read stays in bounds.
func newWorker(cfg Config, id int, features []half.F16, coords []uint32, count int, grid []half.F16) (*worker, error) {
	part := partition.Plan(count, cfg.Workers, id)

	feat, err := view.Slice(features, part.Start*cfg.Channels, part.Count*cfg.Channels, 0)
	if err != nil {
		return nil, err
	}
	coord, err := view.Slice(coords, part.Start*coordFields, part.Count*coordFields, CoordSlack)
	if err != nil {
		return nil, err
	}
	dst, err := view.Slice(grid, 0, cfg.Height*cfg.Width*cfg.Channels, 0)
	if err != nil {
		return nil, err
	}

	return &worker{
		cfg:   cfg,
		id:    id,
		part:  part,
		feat:  feat,
		coord: coord,
		dst:   dst,
		slots: newSlotPool(cfg.Channels),
	}, nil
}

// run is the orchestrator loop: for each local index, transfer the
// item into a staging slot, then consume the slot in the compute
// stage. A worker with an empty partition returns immediately.
func (w *worker) run() {
	for i := range w.part.Count {
		s := w.slots.acquire()
		w.transferIn(s, i)
		w.compute(s)
		w.slots.release(s)
	}
}

// transferIn is the staged transfer pipeline for one item: bulk-copy
// the item's Channels feature elements and its coordBlock coordinate
// elements into the slot, then mark the slot ready. The coordinate
// copy reads 8 elements although only 4 are meaningful; the extra 4
// are read-ahead filler covered by the view's slack.
func (w *worker) transferIn(s *slot, i int) {
	w.feat.CopyOut(s.feat, i*w.cfg.Channels, w.cfg.Channels)
	w.coord.CopyOut(s.coord, i*coordFields, coordBlock)
	s.ready = true
}

// compute consumes a ready slot: decode the coordinate, compute the
// NHWC base offset and bulk-write the feature vector into the grid.
// The write is always one block transfer of Channels contiguous
// elements, never an element-wise loop.
func (w *worker) compute(s *slot) {
	if !s.ready {
		// Data dependency violated; skip rather than scatter garbage.
		return
	}

	batch := s.coord[0]
	y := int(s.coord[1])
	x := int(s.coord[2])
	// s.coord[3] is reserved, unused.

	if !w.cfg.Trusting {
		if batch != 0 || y >= w.cfg.Height || x >= w.cfg.Width {
			w.rejected++
			return
		}
	}

	base := (y*w.cfg.Width + x) * w.cfg.Channels
	w.dst.CopyIn(base, s.feat)
}
