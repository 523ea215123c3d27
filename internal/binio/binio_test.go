package binio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	pillarscatter "github.com/XI-Dimension/Ascend-PillarScatter"
	"github.com/XI-Dimension/Ascend-PillarScatter/half"
)

func writeU16(t *testing.T, path string, vals []uint16) {
	t.Helper()
	raw := make([]byte, len(vals)*2)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(raw[i*2:], v)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeU32(t *testing.T, path string, vals []uint32) {
	t.Helper()
	raw := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.bin")
	writeU16(t, path, []uint16{0x3C00, 0x8000, 0x7C00})

	got, err := ReadFeatures(path)
	if err != nil {
		t.Fatalf("ReadFeatures() error = %v", err)
	}
	want := []half.F16{0x3C00, 0x8000, 0x7C00}
	if len(got) != len(want) {
		t.Fatalf("ReadFeatures() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ReadFeatures()[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestReadFeaturesOddSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFeatures(path); err == nil {
		t.Error("ReadFeatures(odd size) error = nil, want error")
	}
}

func TestReadCoordsCarriesSlack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coords.bin")
	writeU32(t, path, []uint32{0, 3, 1, 0, 0, 0, 2, 0})

	got, records, err := ReadCoords(path)
	if err != nil {
		t.Fatalf("ReadCoords() error = %v", err)
	}
	if records != 2 {
		t.Errorf("ReadCoords() records = %d, want 2", records)
	}
	if len(got) != 8+pillarscatter.CoordSlack {
		t.Fatalf("ReadCoords() len = %d, want %d", len(got), 8+pillarscatter.CoordSlack)
	}
	if got[1] != 3 || got[6] != 2 {
		t.Errorf("ReadCoords() = %v, want fields preserved", got)
	}
	for i, v := range got[8:] {
		if v != 0 {
			t.Errorf("slack[%d] = %d, want 0", i, v)
		}
	}
}

func TestDeriveCount(t *testing.T) {
	tests := []struct {
		name              string
		featLen, coordLen int
		channels          int
		count             int
		mismatch          bool
	}{
		{"agree", 64 * 10, 4 * 10, 64, 10, false},
		{"features short", 64 * 7, 4 * 10, 64, 7, true},
		{"coords short", 64 * 10, 4 * 4, 64, 4, true},
		{"empty", 0, 0, 64, 0, false},
		{"zero channels", 100, 40, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, mismatch := DeriveCount(tt.featLen, tt.coordLen, tt.channels)
			if count != tt.count || mismatch != tt.mismatch {
				t.Errorf("DeriveCount(%d, %d, %d) = (%d, %v), want (%d, %v)",
					tt.featLen, tt.coordLen, tt.channels, count, mismatch, tt.count, tt.mismatch)
			}
		})
	}
}

func TestWriteGridRoundTrip(t *testing.T) {
	geom := pillarscatter.Geometry{Height: 2, Width: 2, Channels: 2}
	grid := pillarscatter.NewSpatialGrid(geom)
	copy(grid.At(1, 0), []half.F16{0x3C00, 0x4000})

	path := filepath.Join(t.TempDir(), "grid.bin")
	if err := WriteGrid(path, grid); err != nil {
		t.Fatalf("WriteGrid() error = %v", err)
	}
	back, err := ReadFeatures(path)
	if err != nil {
		t.Fatalf("ReadFeatures() error = %v", err)
	}
	if len(back) != geom.Elements() {
		t.Fatalf("round trip len = %d, want %d", len(back), geom.Elements())
	}
	for i := range back {
		if back[i] != grid.Data()[i] {
			t.Errorf("round trip [%d] = %#x, want %#x", i, back[i], grid.Data()[i])
		}
	}
}

func TestReadReferenceNCHW(t *testing.T) {
	geom := pillarscatter.Geometry{Height: 2, Width: 2, Channels: 2}
	// NCHW layout: channel 0 plane then channel 1 plane.
	nchw := []uint16{
		10, 11, // c0 row 0
		12, 13, // c0 row 1
		20, 21, // c1 row 0
		22, 23, // c1 row 1
	}
	path := filepath.Join(t.TempDir(), "ref.bin")
	writeU16(t, path, nchw)

	got, err := ReadReferenceNCHW(path, geom)
	if err != nil {
		t.Fatalf("ReadReferenceNCHW() error = %v", err)
	}
	// NHWC: cell (y,x) holds [c0, c1].
	want := []half.F16{10, 20, 11, 21, 12, 22, 13, 23}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ReadReferenceNCHW()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestReadReferenceNCHWTooShort(t *testing.T) {
	geom := pillarscatter.Geometry{Height: 4, Width: 4, Channels: 4}
	path := filepath.Join(t.TempDir(), "short.bin")
	writeU16(t, path, []uint16{1, 2, 3})
	if _, err := ReadReferenceNCHW(path, geom); err == nil {
		t.Error("ReadReferenceNCHW(short file) error = nil, want error")
	}
}
