package half

import (
	"math"
	"testing"
)

// =============================================================================
// Conversion Tests
// =============================================================================

func TestF16_Float32_KnownBits(t *testing.T) {
	tests := []struct {
		name string
		bits F16
		want float32
	}{
		{"zero", 0x0000, 0},
		{"one", 0x3C00, 1},
		{"two", 0x4000, 2},
		{"half", 0x3800, 0.5},
		{"minus one", 0xBC00, -1},
		{"max normal", 0x7BFF, 65504},
		{"smallest normal", 0x0400, float32(math.Ldexp(1, -14))},
		{"smallest subnormal", 0x0001, float32(math.Ldexp(1, -24))},
		{"largest subnormal", 0x03FF, float32(math.Ldexp(1023, -24))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bits.Float32(); got != tt.want {
				t.Errorf("F16(%#04x).Float32() = %v, want %v", uint16(tt.bits), got, tt.want)
			}
		})
	}
}

func TestF16_Float32_Specials(t *testing.T) {
	if got := F16(0x7C00).Float32(); !math.IsInf(float64(got), 1) {
		t.Errorf("0x7C00 = %v, want +Inf", got)
	}
	if got := F16(0xFC00).Float32(); !math.IsInf(float64(got), -1) {
		t.Errorf("0xFC00 = %v, want -Inf", got)
	}
	if got := F16(0x7E00).Float32(); !math.IsNaN(float64(got)) {
		t.Errorf("0x7E00 = %v, want NaN", got)
	}
	if got := F16(0x8000).Float32(); got != 0 || math.Signbit(float64(got)) != true {
		t.Errorf("0x8000 = %v, want -0", got)
	}
}

func TestFromFloat32_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		v    float32
		want F16
	}{
		{"zero", 0, 0x0000},
		{"one", 1, 0x3C00},
		{"minus two", -2, 0xC000},
		{"max half", 65504, 0x7BFF},
		{"overflow", 1e6, 0x7C00},
		{"negative overflow", -1e6, 0xFC00},
		{"underflow", 1e-9, 0x0000},
		{"smallest normal", float32(math.Ldexp(1, -14)), 0x0400},
		{"smallest subnormal", float32(math.Ldexp(1, -24)), 0x0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromFloat32(tt.v); got != tt.want {
				t.Errorf("FromFloat32(%v) = %#04x, want %#04x", tt.v, uint16(got), uint16(tt.want))
			}
		})
	}
}

func TestFromFloat32_RoundToNearestEven(t *testing.T) {
	// 1 + 2^-11 is exactly halfway between 1.0 (0x3C00) and the next
	// representable half (0x3C01); ties go to the even mantissa.
	v := float32(1 + math.Ldexp(1, -11))
	if got := FromFloat32(v); got != 0x3C00 {
		t.Errorf("FromFloat32(1+2^-11) = %#04x, want 0x3C00 (ties to even)", uint16(got))
	}

	// Slightly above the tie rounds up.
	v = float32(1 + math.Ldexp(1, -11) + math.Ldexp(1, -20))
	if got := FromFloat32(v); got != 0x3C01 {
		t.Errorf("FromFloat32(just above tie) = %#04x, want 0x3C01", uint16(got))
	}
}

func TestFromFloat32_NaN(t *testing.T) {
	got := FromFloat32(float32(math.NaN()))
	if got&0x7C00 != 0x7C00 || got&0x3FF == 0 {
		t.Errorf("FromFloat32(NaN) = %#04x, want a NaN pattern", uint16(got))
	}
}

// =============================================================================
// Round-Trip Tests
// =============================================================================

func TestRoundTrip_AllFiniteBitPatterns(t *testing.T) {
	// Every finite binary16 value converts to float32 exactly, so the
	// round trip must restore the original bit pattern.
	for bits := 0; bits < 1<<16; bits++ {
		f := F16(bits)
		if f&0x7C00 == 0x7C00 {
			continue // Inf and NaN payloads are not bit-stable
		}
		back := FromFloat32(f.Float32())
		if back != f {
			t.Fatalf("round trip %#04x -> %v -> %#04x", bits, f.Float32(), uint16(back))
		}
	}
}

func TestSliceConversions(t *testing.T) {
	src := []float32{0, 1, -1, 0.5, 65504}
	f16s := FromSlice(src)
	back := ToSlice(f16s)

	if len(back) != len(src) {
		t.Fatalf("ToSlice length = %d, want %d", len(back), len(src))
	}
	for i := range src {
		if back[i] != src[i] {
			t.Errorf("slice round trip [%d] = %v, want %v", i, back[i], src[i])
		}
	}
}

func TestF16_IsZero(t *testing.T) {
	if !F16(0x0000).IsZero() || !F16(0x8000).IsZero() {
		t.Error("both zero signs should report IsZero")
	}
	if F16(0x0001).IsZero() {
		t.Error("smallest subnormal should not report IsZero")
	}
}
