package pillarscatter

import (
	"fmt"

	"github.com/XI-Dimension/Ascend-PillarScatter/half"
)

// Geometry describes the destination grid: Height rows, Width columns,
// Channels feature elements per cell. The reference deployment uses a
// 1024x1024 BEV grid with 64 channels.
type Geometry struct {
	Height   int
	Width    int
	Channels int
}

// Valid reports whether all three dimensions are positive.
func (g Geometry) Valid() bool {
	return g.Height > 0 && g.Width > 0 && g.Channels > 0
}

// Elements returns the total element count Height*Width*Channels.
func (g Geometry) Elements() int {
	return g.Height * g.Width * g.Channels
}

// CellOffset returns the flat element offset of cell (y, x) in NHWC
// layout: y*Width*Channels + x*Channels. The channel dimension is the
// fastest-varying, so one cell's Channels elements are contiguous.
func (g Geometry) CellOffset(y, x int) int {
	return (y*g.Width + x) * g.Channels
}

// String returns the geometry as "HxWxC".
func (g Geometry) String() string {
	return fmt.Sprintf("%dx%dx%d", g.Height, g.Width, g.Channels)
}

// SpatialGrid is the dense NHWC destination of a scatter run: a
// [Height, Width, Channels] float16 grid over a flat backing slice,
// single implicit batch.
//
// Thread safety: concurrent writers must target disjoint cells. The
// scatter engine guarantees this for itself by construction of the
// input data; see the package documentation.
type SpatialGrid struct {
	geom Geometry
	data []half.F16
}

// NewSpatialGrid creates a zero-filled grid with the given geometry.
// Returns nil if the geometry is invalid.
func NewSpatialGrid(geom Geometry) *SpatialGrid {
	if !geom.Valid() {
		return nil
	}
	return &SpatialGrid{
		geom: geom,
		data: make([]half.F16, geom.Elements()),
	}
}

// WrapGrid creates a grid over a caller-owned backing slice, which
// must hold exactly geom.Elements() elements. The caller remains the
// owner of the allocation; the grid writes in place.
func WrapGrid(geom Geometry, data []half.F16) (*SpatialGrid, error) {
	if !geom.Valid() {
		return nil, fmt.Errorf("pillarscatter: invalid geometry %v", geom)
	}
	if len(data) != geom.Elements() {
		return nil, fmt.Errorf("pillarscatter: backing slice holds %d elements, geometry %v needs %d",
			len(data), geom, geom.Elements())
	}
	return &SpatialGrid{geom: geom, data: data}, nil
}

// Geometry returns the grid geometry.
func (g *SpatialGrid) Geometry() Geometry { return g.geom }

// Data returns the raw backing slice in NHWC order.
func (g *SpatialGrid) Data() []half.F16 { return g.data }

// At returns the channel slice of cell (y, x). The returned slice
// aliases the grid storage; writing to it writes the grid.
// Returns nil if (y, x) is out of range.
func (g *SpatialGrid) At(y, x int) []half.F16 {
	if y < 0 || y >= g.geom.Height || x < 0 || x >= g.geom.Width {
		return nil
	}
	off := g.geom.CellOffset(y, x)
	return g.data[off : off+g.geom.Channels]
}

// Zero clears every element. A scatter run requires a zero-filled
// destination; callers reusing a grid across runs call Zero between
// them.
func (g *SpatialGrid) Zero() {
	clear(g.data)
}

// NonZero returns the number of non-zero elements and the flat index
// of the first one (-1 when the grid is entirely zero). Negative zero
// counts as non-zero: the scatter is a bit-level passthrough, so a
// written -0 is distinguishable from an untouched cell.
func (g *SpatialGrid) NonZero() (count, first int) {
	first = -1
	for i, v := range g.data {
		if v != 0 {
			if first < 0 {
				first = i
			}
			count++
		}
	}
	return count, first
}

// Unflatten converts a flat element index back to (y, x, c)
// coordinates. Used by diagnostics reporting the first non-zero
// element of a run.
func (g Geometry) Unflatten(i int) (y, x, c int) {
	rowStride := g.Width * g.Channels
	y = i / rowStride
	x = (i % rowStride) / g.Channels
	c = i % g.Channels
	return y, x, c
}
