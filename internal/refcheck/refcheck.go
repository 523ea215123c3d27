// Package refcheck compares a scattered grid against a reference dump
// of the same geometry, both in NHWC float16.
package refcheck

import (
	"fmt"
	"math"
	"strings"

	pillarscatter "github.com/XI-Dimension/Ascend-PillarScatter"
	"github.com/XI-Dimension/Ascend-PillarScatter/half"
)

// maxSamples caps how many differing positions a Report records.
const maxSamples = 10

// Diff is one differing grid position.
type Diff struct {
	Y, X, C   int
	Got, Want float32
	GotBits   half.F16
	WantBits  half.F16
}

// Report summarizes a comparison.
type Report struct {
	Geometry    pillarscatter.Geometry
	Total       int
	Mismatched  int
	BitExact    bool
	MaxAbsDiff  float64
	Tolerance   float64
	GotNonZero  int
	WantNonZero int
	Samples     []Diff
}

// OK reports whether every element matched within tolerance.
func (r Report) OK() bool { return r.Mismatched == 0 }

// String formats the report for the command line.
func (r Report) String() string {
	var b strings.Builder
	if r.OK() {
		if r.BitExact {
			fmt.Fprintf(&b, "OK: %d elements bit-exact", r.Total)
		} else {
			fmt.Fprintf(&b, "OK: %d elements within tolerance %g (max abs diff %g)",
				r.Total, r.Tolerance, r.MaxAbsDiff)
		}
	} else {
		fmt.Fprintf(&b, "FAIL: %d of %d elements differ (max abs diff %g, tolerance %g)",
			r.Mismatched, r.Total, r.MaxAbsDiff, r.Tolerance)
	}
	fmt.Fprintf(&b, "\nnon-zero elements: got %d, reference %d", r.GotNonZero, r.WantNonZero)
	for _, d := range r.Samples {
		fmt.Fprintf(&b, "\n  [y=%d x=%d c=%d] got %g (%#04x), want %g (%#04x)",
			d.Y, d.X, d.C, d.Got, uint16(d.GotBits), d.Want, uint16(d.WantBits))
	}
	if r.Mismatched > len(r.Samples) {
		fmt.Fprintf(&b, "\n  ... %d more", r.Mismatched-len(r.Samples))
	}
	return b.String()
}

// Compare checks got against want element by element. Identical bit
// patterns always match (including NaN); otherwise values must agree
// within tolerance in float32 space.
func Compare(got, want []half.F16, geom pillarscatter.Geometry, tolerance float64) (Report, error) {
	if len(got) != geom.Elements() || len(want) != geom.Elements() {
		return Report{}, fmt.Errorf("refcheck: buffer sizes %d/%d do not match %v (%d elements)",
			len(got), len(want), geom, geom.Elements())
	}

	r := Report{Geometry: geom, Total: geom.Elements(), BitExact: true, Tolerance: tolerance}
	for i := range got {
		if got[i] != 0 {
			r.GotNonZero++
		}
		if want[i] != 0 {
			r.WantNonZero++
		}
		if got[i] == want[i] {
			continue
		}
		r.BitExact = false

		g := float64(got[i].Float32())
		w := float64(want[i].Float32())
		diff := math.Abs(g - w)
		if !math.IsNaN(diff) {
			r.MaxAbsDiff = math.Max(r.MaxAbsDiff, diff)
		}
		if diff <= tolerance {
			continue
		}

		r.Mismatched++
		if len(r.Samples) < maxSamples {
			y, x, c := geom.Unflatten(i)
			r.Samples = append(r.Samples, Diff{
				Y: y, X: x, C: c,
				Got: got[i].Float32(), Want: want[i].Float32(),
				GotBits: got[i], WantBits: want[i],
			})
		}
	}
	return r, nil
}
