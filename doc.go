// Package pillarscatter converts sparse pillar features into a dense
// bird's-eye-view (BEV) feature grid.
//
// # Overview
//
// pillarscatter implements the scatter stage of a PointPillars-style
// perception pipeline: N fixed-length float16 feature vectors, each
// tagged with a 2-D grid coordinate, are written into a zero-filled
// dense NHWC [H, W, F] grid at their addressed cells. The transfer is
// a pure passthrough; feature bits are never transformed. The work is
// partitioned across a fixed number of independent workers, and an
// optional GPU backend can run the whole scatter as a single compute
// dispatch.
//
// # Quick Start
//
//	import (
//	    ps "github.com/XI-Dimension/Ascend-PillarScatter"
//	    "github.com/XI-Dimension/Ascend-PillarScatter/half"
//	)
//
//	geom := ps.Geometry{Height: 1024, Width: 1024, Channels: 64}
//	grid := ps.NewSpatialGrid(geom)
//
//	sc := ps.New(geom, ps.WithWorkers(8))
//	res, err := sc.Run(features, coords, count, grid)
//
// # Data Layout
//
// Features are row-major [N, F] float16 with no padding between items.
// Coordinates are row-major [N, 4] uint32 records laid out as
// [batch, y, x, reserved]; the backing allocation must carry at least
// 8 extra trailing elements past the logical N*4 (the engine reads
// coordinates as one aligned 8-element block per item). The grid is
// NHWC with the channel dimension contiguous, single implicit batch.
//
// # Validation
//
// By default the engine runs in defensive mode: items whose batch is
// non-zero or whose coordinate falls outside the grid are skipped and
// counted in Result.Rejected. Callers that guarantee coordinates
// upstream can opt into trusting mode with WithValidation(Trusting),
// which removes the per-item checks entirely.
//
// # GPU Acceleration
//
// The CPU engine is always available. GPU acceleration is opt-in via
// blank import:
//
//	import _ "github.com/XI-Dimension/Ascend-PillarScatter/gpu"
//
// When a backend is registered, Run tries it first and transparently
// falls back to the CPU engine on any error.
package pillarscatter

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
