// Package binio loads and stores the raw little-endian buffers the
// scatter pipeline works on: float16 feature streams, uint32
// coordinate streams, and dense grid dumps.
package binio

import (
	"encoding/binary"
	"fmt"
	"os"

	pillarscatter "github.com/XI-Dimension/Ascend-PillarScatter"
	"github.com/XI-Dimension/Ascend-PillarScatter/half"
)

// ReadFeatures loads a packed float16 stream.
func ReadFeatures(path string) ([]half.F16, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("binio: %s: odd byte count %d for a float16 stream", path, len(raw))
	}
	out := make([]half.F16, len(raw)/2)
	for i := range out {
		out[i] = half.F16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out, nil
}

// ReadCoords loads a packed uint32 coordinate stream. The returned
// slice carries CoordSlack trailing zero elements past the file
// contents so it satisfies the scatter block-read precondition without
// another copy; records is the number of complete coordinate records
// the file held.
func ReadCoords(path string) (coords []uint32, records int, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if len(raw)%4 != 0 {
		return nil, 0, fmt.Errorf("binio: %s: byte count %d is not a multiple of 4", path, len(raw))
	}
	n := len(raw) / 4
	out := make([]uint32, n+pillarscatter.CoordSlack)
	for i := range n {
		out[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return out, n / pillarscatter.CoordFields, nil
}

// DeriveCount reconciles the item count implied by the two input
// buffers. featLen is the feature element count, coordLen the
// coordinate element count excluding slack. When the buffers disagree
// the smaller count wins and mismatch reports it.
func DeriveCount(featLen, coordLen, channels int) (count int, mismatch bool) {
	if channels <= 0 {
		return 0, false
	}
	fromFeat := featLen / channels
	fromCoord := coordLen / pillarscatter.CoordFields
	return min(fromFeat, fromCoord), fromFeat != fromCoord
}

// WriteGrid dumps the grid's NHWC contents as packed little-endian
// float16.
func WriteGrid(path string, grid *pillarscatter.SpatialGrid) error {
	data := grid.Data()
	raw := make([]byte, len(data)*2)
	for i, h := range data {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(h))
	}
	return os.WriteFile(path, raw, 0o644)
}

// ReadReferenceNCHW loads a reference grid stored channel-major
// ([C,H,W]) and transposes it to the engine's NHWC layout.
func ReadReferenceNCHW(path string, geom pillarscatter.Geometry) ([]half.F16, error) {
	raw, err := ReadFeatures(path)
	if err != nil {
		return nil, err
	}
	want := geom.Elements()
	if len(raw) < want {
		return nil, fmt.Errorf("binio: %s: %d elements, want at least %d for %v",
			path, len(raw), want, geom)
	}
	out := make([]half.F16, want)
	plane := geom.Height * geom.Width
	for c := range geom.Channels {
		for y := range geom.Height {
			for x := range geom.Width {
				out[geom.CellOffset(y, x)+c] = raw[c*plane+y*geom.Width+x]
			}
		}
	}
	return out, nil
}
