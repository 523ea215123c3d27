package gpu

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

// readBackTimeout bounds the map-and-poll loop after a submit. A healthy
// scatter dispatch completes in well under a millisecond.
const readBackTimeout = 2 * time.Second

// Context owns the WebGPU device and the cached scatter pipeline.
type Context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	logger   *slog.Logger

	mu       sync.Mutex
	pipeline *wgpu.ComputePipeline
}

// newContext acquires an adapter and device. Preference order: high
// performance, then low power, then whatever the platform defaults to.
func newContext(logger *slog.Logger) (*Context, error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, fmt.Errorf("gpu: create instance failed")
	}

	var adapter *wgpu.Adapter
	var lastErr error
	for _, opts := range []*wgpu.RequestAdapterOptions{
		{PowerPreference: wgpu.PowerPreferenceHighPerformance},
		{PowerPreference: wgpu.PowerPreferenceLowPower},
		nil,
	} {
		adapter, lastErr = instance.RequestAdapter(opts)
		if lastErr == nil && adapter != nil {
			break
		}
	}
	if adapter == nil {
		return nil, fmt.Errorf("gpu: no adapter: %v", lastErr)
	}

	info := adapter.GetInfo()
	logger.Debug("webgpu adapter acquired",
		"name", info.Name, "vendor", info.VendorName, "type", info.AdapterType)

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: request device: %w", err)
	}

	return &Context{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		logger:   logger,
	}, nil
}

// scatterPipeline compiles the scatter shader once per context.
func (c *Context) scatterPipeline() (*wgpu.ComputePipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeline != nil {
		return c.pipeline, nil
	}

	module, err := c.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "pillar_scatter",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: scatterShader},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: shader module: %w", err)
	}
	defer module.Release()

	pipeline, err := c.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "pillar_scatter",
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: compute pipeline: %w", err)
	}
	c.pipeline = pipeline
	return pipeline, nil
}

// release drops the cached pipeline. The device itself lives for the
// rest of the process; wgpu tears it down on exit.
func (c *Context) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeline != nil {
		c.pipeline.Release()
		c.pipeline = nil
	}
}

// readBack maps a MapRead staging buffer and copies its contents out.
func (c *Context) readBack(buf *wgpu.Buffer, sizeBytes uint64) ([]byte, error) {
	done := make(chan struct{})
	var mapErr error
	err := buf.MapAsync(wgpu.MapModeRead, 0, sizeBytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("gpu: map failed: %v", status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: map async: %w", err)
	}

	timeout := time.After(readBackTimeout)
poll:
	for {
		c.device.Poll(false, nil)
		select {
		case <-done:
			break poll
		case <-timeout:
			return nil, fmt.Errorf("gpu: read back timed out after %v", readBackTimeout)
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if mapErr != nil {
		return nil, mapErr
	}

	data := buf.GetMappedRange(0, uint(sizeBytes))
	if data == nil {
		return nil, fmt.Errorf("gpu: mapped range unavailable")
	}
	out := make([]byte, sizeBytes)
	copy(out, data)
	buf.Unmap()
	return out, nil
}
