package pillarscatter

// CoordFields is the number of uint32 fields per coordinate record.
const CoordFields = 4

// CoordSlack is the minimum number of extra trailing uint32 elements a
// coordinate buffer must carry past its logical N*CoordFields length.
// The engine reads each record as one aligned 8-element block instead
// of four narrow reads, so the final record's read extends up to 4
// elements past the logical end.
const CoordSlack = 8

// Coord is one decoded coordinate record. The raw buffer layout per
// item is [batch, y, x, reserved]; batch is expected to be 0
// (single-batch processing) and reserved is unused.
type Coord struct {
	Batch    uint32
	Y        uint32
	X        uint32
	Reserved uint32
}

// CoordAt decodes the i-th coordinate record of a raw buffer.
func CoordAt(buf []uint32, i int) Coord {
	off := i * CoordFields
	return Coord{
		Batch:    buf[off+0],
		Y:        buf[off+1],
		X:        buf[off+2],
		Reserved: buf[off+3],
	}
}

// PutCoordAt encodes a coordinate record at index i of a raw buffer.
// Test fixtures and host tooling use this; the engine itself only
// reads coordinates.
func PutCoordAt(buf []uint32, i int, c Coord) {
	off := i * CoordFields
	buf[off+0] = c.Batch
	buf[off+1] = c.Y
	buf[off+2] = c.X
	buf[off+3] = c.Reserved
}

// MakeCoordBuffer allocates a coordinate buffer for n items with the
// required CoordSlack trailing elements, returning the full allocation.
func MakeCoordBuffer(n int) []uint32 {
	return make([]uint32, n*CoordFields+CoordSlack)
}
