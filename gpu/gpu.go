// Package gpu provides a WebGPU compute backend for pillarscatter.
//
// Importing the package registers the backend:
//
//	import _ "github.com/XI-Dimension/Ascend-PillarScatter/gpu"
//
// Device initialization is lazy: registration never touches the GPU,
// and the first scatter that cannot obtain a device falls back to the
// CPU engine transparently.
//
// The backend runs the whole scatter as one compute dispatch, one
// thread per item. Feature data crosses the device boundary as packed
// 32-bit words (two float16 values per word), so the copy is bit-exact
// without requiring the optional shader-f16 feature; this also means
// the backend only accepts even channel counts.
package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/openfluke/webgpu/wgpu"

	pillarscatter "github.com/XI-Dimension/Ascend-PillarScatter"
	"github.com/XI-Dimension/Ascend-PillarScatter/half"
)

func init() {
	// Registration cannot fail here: Init is a no-op and the device is
	// acquired lazily on first use.
	if err := pillarscatter.RegisterAccelerator(New()); err != nil {
		pillarscatter.Logger().Warn("webgpu backend registration failed", "error", err)
	}
}

// Accelerator is the WebGPU scatter backend. Use New to create one;
// the blank import registers a shared instance automatically.
type Accelerator struct {
	mu     sync.Mutex
	ctx    *Context
	logger *slog.Logger
}

// New creates an unregistered WebGPU accelerator.
func New() *Accelerator {
	return &Accelerator{logger: pillarscatter.Logger()}
}

// Name returns "webgpu".
func (a *Accelerator) Name() string { return "webgpu" }

// Init implements pillarscatter.Accelerator. The device is acquired
// lazily by the first Scatter, so Init never fails and importing the
// package is safe on machines without a GPU.
func (a *Accelerator) Init() error { return nil }

// SetLogger receives the package logger from pillarscatter.SetLogger.
func (a *Accelerator) SetLogger(l *slog.Logger) {
	a.mu.Lock()
	a.logger = l
	a.mu.Unlock()
}

// Close releases the device context, if one was ever acquired.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ctx != nil {
		a.ctx.release()
		a.ctx = nil
	}
}

// context returns the lazily-initialized device context.
func (a *Accelerator) context() (*Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ctx != nil {
		return a.ctx, nil
	}
	ctx, err := newContext(a.logger)
	if err != nil {
		return nil, err
	}
	a.ctx = ctx
	return ctx, nil
}

// Scatter implements pillarscatter.Accelerator: upload the three
// buffers, run one compute dispatch, read the grid and the rejected
// counter back.
func (a *Accelerator) Scatter(req pillarscatter.ScatterRequest) (int, error) {
	if req.Count == 0 {
		return 0, nil
	}
	if req.Geometry.Channels%2 != 0 {
		return 0, fmt.Errorf("%w: odd channel count %d needs the CPU engine",
			pillarscatter.ErrFallbackToCPU, req.Geometry.Channels)
	}

	ctx, err := a.context()
	if err != nil {
		return 0, fmt.Errorf("%w: no device: %v", pillarscatter.ErrFallbackToCPU, err)
	}

	return ctx.scatter(req)
}

// scatter encodes and submits the dispatch on this context.
func (c *Context) scatter(req pillarscatter.ScatterRequest) (rejected int, err error) {
	geom := req.Geometry
	gridBytes := uint64(geom.Elements() * 2)

	featBuf, err := c.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "pillar_features",
		Contents: wgpu.ToBytes(req.Features[:req.Count*geom.Channels]),
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		return 0, fmt.Errorf("gpu: feature buffer: %w", err)
	}
	defer featBuf.Destroy()

	coordBuf, err := c.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "pillar_coords",
		Contents: wgpu.ToBytes(req.Coords[:req.Count*4]),
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		return 0, fmt.Errorf("gpu: coordinate buffer: %w", err)
	}
	defer coordBuf.Destroy()

	// Upload the caller's grid as-is rather than a fresh zero buffer:
	// the contract is scatter onto whatever the grid already holds.
	gridBuf, err := c.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "spatial_features",
		Contents: wgpu.ToBytes(req.Grid),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return 0, fmt.Errorf("gpu: grid buffer: %w", err)
	}
	defer gridBuf.Destroy()

	paramsBuf, err := c.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "scatter_params",
		Contents: wgpu.ToBytes(shaderParams(req)),
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		return 0, fmt.Errorf("gpu: params buffer: %w", err)
	}
	defer paramsBuf.Destroy()

	rejectedBuf, err := c.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "rejected_count",
		Contents: wgpu.ToBytes([]uint32{0}),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return 0, fmt.Errorf("gpu: rejected buffer: %w", err)
	}
	defer rejectedBuf.Destroy()

	pipeline, err := c.scatterPipeline()
	if err != nil {
		return 0, err
	}

	bindGroup, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "scatter_bind",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: featBuf, Size: featBuf.GetSize()},
			{Binding: 1, Buffer: coordBuf, Size: coordBuf.GetSize()},
			{Binding: 2, Buffer: gridBuf, Size: gridBuf.GetSize()},
			{Binding: 3, Buffer: paramsBuf, Size: paramsBuf.GetSize()},
			{Binding: 4, Buffer: rejectedBuf, Size: rejectedBuf.GetSize()},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("gpu: bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		return 0, fmt.Errorf("gpu: command encoder: %w", err)
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(uint32((req.Count+workgroupSize-1)/workgroupSize), 1, 1)
	pass.End()

	gridStaging, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "grid_staging",
		Size:  gridBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("gpu: grid staging: %w", err)
	}
	defer gridStaging.Destroy()

	rejStaging, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "rejected_staging",
		Size:  4,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("gpu: rejected staging: %w", err)
	}
	defer rejStaging.Destroy()

	encoder.CopyBufferToBuffer(gridBuf, 0, gridStaging, 0, gridBytes)
	encoder.CopyBufferToBuffer(rejectedBuf, 0, rejStaging, 0, 4)

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return 0, fmt.Errorf("gpu: finish: %w", err)
	}
	c.queue.Submit(cmd)

	gridData, err := c.readBack(gridStaging, gridBytes)
	if err != nil {
		return 0, err
	}
	copy(req.Grid, wgpu.FromBytes[half.F16](gridData))

	rejData, err := c.readBack(rejStaging, 4)
	if err != nil {
		return 0, err
	}
	return int(wgpu.FromBytes[uint32](rejData)[0]), nil
}

// shaderParams packs the dispatch parameters in the layout the WGSL
// Params struct expects.
func shaderParams(req pillarscatter.ScatterRequest) []uint32 {
	trusting := uint32(0)
	if req.Trusting {
		trusting = 1
	}
	return []uint32{
		uint32(req.Count),
		uint32(req.Geometry.Height),
		uint32(req.Geometry.Width),
		uint32(req.Geometry.Channels),
		trusting,
	}
}
