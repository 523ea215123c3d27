// Package half implements the IEEE 754 binary16 (half-precision)
// storage format used by the scatter engine.
//
// The scatter core treats half-precision values as opaque 16-bit
// patterns and never converts them; F16 exists so that buffers carry
// their element type, and so that host-side tooling (fixtures, stats,
// heatmaps, reference checks) can move between binary16 and float32.
package half

import "math"

// F16 is an IEEE 754 binary16 value stored as its raw bit pattern.
//
// The zero value is positive zero.
type F16 uint16

// Bits returns the raw 16-bit pattern of f.
func (f F16) Bits() uint16 { return uint16(f) }

// IsZero reports whether f is positive or negative zero.
func (f F16) IsZero() bool { return f&0x7FFF == 0 }

// Float32 converts f to float32. The conversion is exact: every
// binary16 value, including subnormals, infinities and NaNs, is
// representable in binary32.
func (f F16) Float32() float32 {
	sign := uint32(f>>15) & 0x1
	exponent := uint32(f>>10) & 0x1F
	mantissa := uint32(f) & 0x3FF

	var bits uint32
	switch {
	case exponent == 0:
		if mantissa == 0 {
			// Zero
			bits = sign << 31
		} else {
			// Subnormal: renormalize into the binary32 range.
			exponent = 1
			for mantissa&0x400 == 0 {
				mantissa <<= 1
				exponent--
			}
			mantissa &= 0x3FF
			bits = sign<<31 | (exponent+(127-15))<<23 | mantissa<<13
		}
	case exponent == 0x1F:
		// Inf or NaN
		bits = sign<<31 | 0xFF<<23 | mantissa<<13
	default:
		// Normal
		bits = sign<<31 | (exponent+(127-15))<<23 | mantissa<<13
	}

	return math.Float32frombits(bits)
}

// FromFloat32 converts v to binary16 with round-to-nearest-even.
// Values beyond the binary16 range become infinities; NaN payloads are
// preserved in the top mantissa bits (quietened if truncation would
// produce an infinity pattern).
func FromFloat32(v float32) F16 {
	bits := math.Float32bits(v)
	sign := uint16(bits>>16) & 0x8000
	exponent := int32(bits>>23) & 0xFF
	mantissa := bits & 0x7FFFFF

	switch {
	case exponent == 0xFF:
		if mantissa == 0 {
			// Inf
			return F16(sign | 0x7C00)
		}
		// NaN: keep the top mantissa bits, force at least one set.
		nanMant := uint16(mantissa >> 13)
		if nanMant == 0 {
			nanMant = 1
		}
		return F16(sign | 0x7C00 | nanMant)

	case exponent > 127+15:
		// Overflow to Inf.
		return F16(sign | 0x7C00)

	case exponent >= 127-14:
		// Normal range. Round the 13 dropped bits to nearest even.
		e := uint32(exponent - (127 - 15))
		m := mantissa
		rounded := (e<<10 | m>>13) + roundBit(e<<10|m>>13, m)
		return F16(sign | uint16(rounded))

	case exponent >= 127-14-10:
		// Subnormal range: shift the implicit leading bit into the
		// mantissa before rounding.
		m := mantissa | 0x800000
		shift := uint32(127 - 14 - exponent + 13)
		half := m >> shift
		rem := m & (1<<shift - 1)
		// Round to nearest even on the remainder.
		if rem > 1<<(shift-1) || (rem == 1<<(shift-1) && half&1 == 1) {
			half++
		}
		return F16(sign | uint16(half))

	default:
		// Underflow to zero.
		return F16(sign)
	}
}

// roundBit returns the round-to-nearest-even increment for a value
// whose dropped low 13 bits are the tail of mantissa m.
func roundBit(truncated, m uint32) uint32 {
	tail := m & 0x1FFF
	switch {
	case tail > 0x1000:
		return 1
	case tail == 0x1000 && truncated&1 == 1:
		return 1
	default:
		return 0
	}
}

// FromSlice converts a float32 slice to binary16.
func FromSlice(src []float32) []F16 {
	dst := make([]F16, len(src))
	for i, v := range src {
		dst[i] = FromFloat32(v)
	}
	return dst
}

// ToSlice converts a binary16 slice to float32.
func ToSlice(src []F16) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = v.Float32()
	}
	return dst
}
