package gpu

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	pillarscatter "github.com/XI-Dimension/Ascend-PillarScatter"
)

// Tests here stay on the host side: they exercise everything short of
// an actual device so they pass on machines without a GPU.

func TestAcceleratorName(t *testing.T) {
	a := New()
	if got := a.Name(); got != "webgpu" {
		t.Errorf("Name() = %q, want %q", got, "webgpu")
	}
	if err := a.Init(); err != nil {
		t.Errorf("Init() = %v, want nil", err)
	}
}

func TestScatterEmptyRequest(t *testing.T) {
	a := New()
	rejected, err := a.Scatter(pillarscatter.ScatterRequest{
		Geometry: pillarscatter.Geometry{Height: 4, Width: 4, Channels: 2},
	})
	if err != nil {
		t.Fatalf("Scatter(count=0) error = %v, want nil", err)
	}
	if rejected != 0 {
		t.Errorf("Scatter(count=0) rejected = %d, want 0", rejected)
	}
}

func TestScatterOddChannelsFallsBack(t *testing.T) {
	a := New()
	_, err := a.Scatter(pillarscatter.ScatterRequest{
		Geometry: pillarscatter.Geometry{Height: 4, Width: 4, Channels: 3},
		Count:    1,
	})
	if !errors.Is(err, pillarscatter.ErrFallbackToCPU) {
		t.Errorf("Scatter(channels=3) error = %v, want ErrFallbackToCPU", err)
	}
}

func TestShaderParams(t *testing.T) {
	req := pillarscatter.ScatterRequest{
		Geometry: pillarscatter.Geometry{Height: 496, Width: 432, Channels: 64},
		Count:    12000,
	}
	want := []uint32{12000, 496, 432, 64, 0}
	got := shaderParams(req)
	if len(got) != len(want) {
		t.Fatalf("shaderParams() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("shaderParams()[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	req.Trusting = true
	if got := shaderParams(req); got[4] != 1 {
		t.Errorf("shaderParams(trusting)[4] = %d, want 1", got[4])
	}
}

func TestShaderSource(t *testing.T) {
	if !strings.Contains(scatterShader, fmt.Sprintf("@workgroup_size(%d)", workgroupSize)) {
		t.Errorf("shader workgroup size does not match workgroupSize = %d", workgroupSize)
	}
	for binding := range 5 {
		marker := fmt.Sprintf("@binding(%d)", binding)
		if !strings.Contains(scatterShader, marker) {
			t.Errorf("shader missing %s", marker)
		}
	}
	// The defensive branch must count instead of writing out of bounds.
	if !strings.Contains(scatterShader, "atomicAdd(&rejected, 1u)") {
		t.Error("shader missing rejected counter update")
	}
}
