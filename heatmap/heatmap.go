// Package heatmap renders a scattered feature grid as a false-color
// image for visual inspection. Each grid cell is reduced to a scalar
// across its channels, normalized over the occupied range, and mapped
// through a viridis ramp. Pillar positions can be marked from the raw
// coordinate buffer to confirm the scatter landed where the input said
// it should.
package heatmap

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	pillarscatter "github.com/XI-Dimension/Ascend-PillarScatter"
)

// Reduction selects how a cell's channels collapse to one scalar.
type Reduction int

const (
	// Mean averages all channels.
	Mean Reduction = iota
	// Max takes the largest channel value.
	Max
	// Sum adds all channels.
	Sum
	// Norm takes the L2 norm across channels.
	Norm
	// Single shows one channel, chosen by Options.Channel.
	Single
	// Occupancy paints 1 for any cell with a non-zero channel.
	Occupancy
)

// String returns the reduction name as accepted by ParseReduction.
func (r Reduction) String() string {
	switch r {
	case Mean:
		return "mean"
	case Max:
		return "max"
	case Sum:
		return "sum"
	case Norm:
		return "norm"
	case Single:
		return "single"
	case Occupancy:
		return "occupancy"
	default:
		return fmt.Sprintf("Reduction(%d)", int(r))
	}
}

// ParseReduction maps a name to a Reduction.
func ParseReduction(name string) (Reduction, error) {
	switch name {
	case "mean":
		return Mean, nil
	case "max":
		return Max, nil
	case "sum":
		return Sum, nil
	case "norm":
		return Norm, nil
	case "single":
		return Single, nil
	case "occupancy":
		return Occupancy, nil
	default:
		return 0, fmt.Errorf("heatmap: unknown reduction %q", name)
	}
}

// Options controls rendering.
type Options struct {
	// Reduction collapses channels to a scalar. Default Mean.
	Reduction Reduction
	// Channel is the channel index when Reduction is Single.
	Channel int
	// Scale is the integer upscale factor. Values below 1 mean 1.
	Scale int
	// Markers, when non-nil, is a raw coordinate buffer
	// ([batch, y, x, reserved] per item); valid positions are circled.
	Markers []uint32
	// MarkerLimit caps how many markers are drawn. 0 means 100.
	MarkerLimit int
}

// Reduce collapses the grid to one scalar per cell, row-major [H*W].
func Reduce(grid *pillarscatter.SpatialGrid, opts Options) ([]float64, error) {
	geom := grid.Geometry()
	if opts.Reduction == Single && (opts.Channel < 0 || opts.Channel >= geom.Channels) {
		return nil, fmt.Errorf("heatmap: channel %d out of range [0,%d)", opts.Channel, geom.Channels)
	}

	out := make([]float64, geom.Height*geom.Width)
	for y := range geom.Height {
		for x := range geom.Width {
			cell := grid.At(y, x)
			var v float64
			switch opts.Reduction {
			case Mean:
				for _, h := range cell {
					v += float64(h.Float32())
				}
				v /= float64(len(cell))
			case Max:
				v = math.Inf(-1)
				for _, h := range cell {
					v = math.Max(v, float64(h.Float32()))
				}
			case Sum:
				for _, h := range cell {
					v += float64(h.Float32())
				}
			case Norm:
				for _, h := range cell {
					f := float64(h.Float32())
					v += f * f
				}
				v = math.Sqrt(v)
			case Single:
				v = float64(cell[opts.Channel].Float32())
			case Occupancy:
				for _, h := range cell {
					if h != 0 {
						v = 1
						break
					}
				}
			default:
				return nil, fmt.Errorf("heatmap: unknown reduction %d", opts.Reduction)
			}
			out[y*geom.Width+x] = v
		}
	}
	return out, nil
}

// Render reduces the grid and paints it as an RGBA image of
// (Width*Scale) x (Height*Scale) pixels.
func Render(grid *pillarscatter.SpatialGrid, opts Options) (*image.RGBA, error) {
	reduced, err := Reduce(grid, opts)
	if err != nil {
		return nil, err
	}
	geom := grid.Geometry()

	lo, hi := valueRange(reduced)
	img := image.NewRGBA(image.Rect(0, 0, geom.Width, geom.Height))
	for y := range geom.Height {
		for x := range geom.Width {
			img.SetRGBA(x, y, ramp(normalize(reduced[y*geom.Width+x], lo, hi)))
		}
	}

	scale := max(opts.Scale, 1)
	if scale > 1 {
		scaled := image.NewRGBA(image.Rect(0, 0, geom.Width*scale, geom.Height*scale))
		// Nearest neighbor keeps cell boundaries crisp.
		xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		img = scaled
	}

	if opts.Markers != nil {
		markPillars(img, geom, scale, opts.Markers, opts.MarkerLimit)
	}
	return img, nil
}

// SavePNG renders the grid and writes it to path.
func SavePNG(path string, grid *pillarscatter.SpatialGrid, opts Options) error {
	img, err := Render(grid, opts)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, img)
}

// valueRange returns the finite min and max of vs.
func valueRange(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func normalize(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if hi <= lo {
		return 0
	}
	t := (v - lo) / (hi - lo)
	return math.Min(1, math.Max(0, t))
}

// viridisAnchors holds evenly spaced RGB stops of the viridis colormap.
var viridisAnchors = [][3]uint8{
	{68, 1, 84},
	{72, 36, 117},
	{65, 68, 135},
	{53, 95, 141},
	{42, 120, 142},
	{33, 145, 140},
	{34, 168, 132},
	{66, 190, 113},
	{122, 209, 81},
	{189, 223, 38},
	{253, 231, 37},
}

// ramp maps t in [0,1] to a viridis color by linear interpolation
// between anchors.
func ramp(t float64) color.RGBA {
	pos := t * float64(len(viridisAnchors)-1)
	i := int(pos)
	if i >= len(viridisAnchors)-1 {
		a := viridisAnchors[len(viridisAnchors)-1]
		return color.RGBA{a[0], a[1], a[2], 0xFF}
	}
	frac := pos - float64(i)
	a, b := viridisAnchors[i], viridisAnchors[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + frac*(float64(y)-float64(x)))
	}
	return color.RGBA{lerp(a[0], b[0]), lerp(a[1], b[1]), lerp(a[2], b[2]), 0xFF}
}

var markerColor = color.RGBA{0xFF, 0x30, 0x30, 0xFF}

// markPillars circles the first few valid coordinate records so the
// scatter result can be eyeballed against the input positions.
func markPillars(img *image.RGBA, geom pillarscatter.Geometry, scale int, coords []uint32, limit int) {
	if limit <= 0 {
		limit = 100
	}
	n := min(len(coords)/pillarscatter.CoordFields, limit)
	for i := range n {
		c := pillarscatter.CoordAt(coords, i)
		if c.Batch != 0 || int(c.Y) >= geom.Height || int(c.X) >= geom.Width {
			continue
		}
		cx := int(c.X)*scale + scale/2
		cy := int(c.Y)*scale + scale/2
		drawCircle(img, cx, cy, 2+scale)
	}
}

// drawCircle plots a one-pixel ring using the midpoint algorithm.
func drawCircle(img *image.RGBA, cx, cy, r int) {
	bounds := img.Bounds()
	set := func(x, y int) {
		if image.Pt(x, y).In(bounds) {
			img.SetRGBA(x, y, markerColor)
		}
	}
	x, y := r, 0
	d := 1 - r
	for x >= y {
		set(cx+x, cy+y)
		set(cx+y, cy+x)
		set(cx-y, cy+x)
		set(cx-x, cy+y)
		set(cx-x, cy-y)
		set(cx-y, cy-x)
		set(cx+y, cy-x)
		set(cx+x, cy-y)
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}
