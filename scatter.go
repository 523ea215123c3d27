package pillarscatter

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/XI-Dimension/Ascend-PillarScatter/half"
	"github.com/XI-Dimension/Ascend-PillarScatter/internal/engine"
)

// Scatterer scatters sparse pillar features into a dense grid. It is
// configured once and can run any number of invocations; a Scatterer
// holds no per-run state and is safe for concurrent use as long as
// concurrent runs target different grids.
type Scatterer struct {
	geom    Geometry
	workers int
	policy  ValidationPolicy
	noAccel bool
}

// Result summarizes one scatter run.
type Result struct {
	// Scattered is the number of items written into the grid.
	Scattered int

	// Rejected is the number of items skipped by defensive
	// validation. Always 0 under the Trusting policy.
	Rejected int

	// Elapsed is the wall-clock duration of the scatter, excluding
	// input reconciliation.
	Elapsed time.Duration

	// Backend names the engine that performed the run: "cpu" or the
	// registered accelerator's name.
	Backend string
}

// New creates a Scatterer for the given grid geometry.
// Returns nil if the geometry is invalid.
func New(geom Geometry, opts ...Option) *Scatterer {
	if !geom.Valid() {
		return nil
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	workers := o.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Scatterer{
		geom:    geom,
		workers: workers,
		policy:  o.policy,
		noAccel: o.noAccel,
	}
}

// Geometry returns the configured grid geometry.
func (s *Scatterer) Geometry() Geometry { return s.geom }

// Workers returns the configured worker count.
func (s *Scatterer) Workers() int { return s.workers }

// Policy returns the configured validation policy.
func (s *Scatterer) Policy() ValidationPolicy { return s.policy }

// Run scatters count items from features and coords into grid.
//
// features is a [count, Channels] float16 buffer; coords is a
// [count, 4] uint32 buffer whose backing allocation should carry
// CoordSlack extra trailing elements (see MakeCoordBuffer). grid must
// match the Scatterer's geometry and be zero-filled by the caller;
// Run writes it in place and performs no other I/O.
//
// If the buffers hold fewer items than count, Run reconciles by
// taking the minimum and logging a warning. If the coordinate buffer
// is missing its slack, Run repairs it by copying into a padded
// allocation before entering the engine.
func (s *Scatterer) Run(features []half.F16, coords []uint32, count int, grid *SpatialGrid) (Result, error) {
	if grid == nil {
		return Result{}, errors.New("pillarscatter: nil grid")
	}
	if grid.Geometry() != s.geom {
		return Result{}, fmt.Errorf("pillarscatter: grid geometry %v does not match scatterer geometry %v",
			grid.Geometry(), s.geom)
	}
	if count < 0 {
		return Result{}, fmt.Errorf("pillarscatter: negative item count %d", count)
	}

	n := s.reconcileCount(features, coords, count)
	coords = s.ensureSlack(coords, n)

	req := ScatterRequest{
		Geometry: s.geom,
		Features: features,
		Coords:   coords,
		Count:    n,
		Grid:     grid.Data(),
		Trusting: s.policy == Trusting,
	}

	start := time.Now()

	if a := s.accelerator(); a != nil {
		rejected, err := a.Scatter(req)
		if err == nil {
			return Result{
				Scattered: n - rejected,
				Rejected:  rejected,
				Elapsed:   time.Since(start),
				Backend:   a.Name(),
			}, nil
		}
		if errors.Is(err, ErrFallbackToCPU) {
			Logger().Debug("accelerator declined scatter", "accelerator", a.Name(), "reason", err)
		} else {
			Logger().Warn("accelerator failed, falling back to CPU", "accelerator", a.Name(), "error", err)
		}
		start = time.Now()
	}

	rejected, err := engine.Run(engine.Config{
		Height:   s.geom.Height,
		Width:    s.geom.Width,
		Channels: s.geom.Channels,
		Workers:  s.workers,
		Trusting: s.policy == Trusting,
	}, features, coords, n, grid.Data())
	if err != nil {
		return Result{}, err
	}

	return Result{
		Scattered: n - rejected,
		Rejected:  rejected,
		Elapsed:   time.Since(start),
		Backend:   "cpu",
	}, nil
}

// accelerator returns the registered accelerator unless this
// Scatterer opted out.
func (s *Scatterer) accelerator() Accelerator {
	if s.noAccel {
		return nil
	}
	return RegisteredAccelerator()
}

// reconcileCount clamps count to what the buffers actually hold,
// logging a warning on mismatch. Deriving the effective N is the host
// side's responsibility; the engine trusts the number it is given.
func (s *Scatterer) reconcileCount(features []half.F16, coords []uint32, count int) int {
	n := count

	if avail := len(features) / s.geom.Channels; avail < n {
		Logger().Warn("feature buffer holds fewer items than requested",
			"requested", n, "available", avail)
		n = avail
	}
	if avail := len(coords) / CoordFields; avail < n {
		Logger().Warn("coordinate buffer holds fewer items than requested",
			"requested", n, "available", avail)
		n = avail
	}
	return n
}

// ensureSlack returns coords if it already carries the required
// trailing slack for n items, or a padded copy otherwise. The engine
// proper relies on the slack precondition; repairing it here keeps
// the undefined-behavior contract out of the public API.
func (s *Scatterer) ensureSlack(coords []uint32, n int) []uint32 {
	need := n*CoordFields + CoordSlack
	if len(coords) >= need {
		return coords
	}

	Logger().Debug("coordinate buffer missing slack, repairing",
		"len", len(coords), "need", need)
	padded := make([]uint32, need)
	copy(padded, coords)
	return padded
}
