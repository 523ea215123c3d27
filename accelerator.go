package pillarscatter

import (
	"errors"
	"sync"

	"github.com/XI-Dimension/Ascend-PillarScatter/half"
)

// ErrFallbackToCPU indicates the accelerator cannot handle this scatter.
// The caller should transparently fall back to the CPU engine.
var ErrFallbackToCPU = errors.New("pillarscatter: falling back to CPU engine")

// ScatterRequest carries one scatter invocation to an accelerator.
// All buffers follow the layout documented in the package comment;
// Grid is the flat NHWC destination, zero-filled by the caller.
type ScatterRequest struct {
	Geometry Geometry

	// Features is the [Count, Channels] source feature buffer.
	Features []half.F16

	// Coords is the [Count, 4] source coordinate buffer, including the
	// CoordSlack trailing elements.
	Coords []uint32

	// Count is the number of items N.
	Count int

	// Grid is the flat NHWC destination, written in place.
	Grid []half.F16

	// Trusting disables per-item coordinate validation.
	Trusting bool
}

// Accelerator is an optional scatter offload provider.
//
// When registered via RegisterAccelerator, Run tries the accelerator
// first. If it returns ErrFallbackToCPU or any other error, the
// scatter transparently falls back to the CPU engine.
//
// Implementations are provided by backend packages (e.g. gpu/).
// Users opt in via blank import:
//
//	import _ "github.com/XI-Dimension/Ascend-PillarScatter/gpu"
type Accelerator interface {
	// Name returns the accelerator name (e.g. "webgpu").
	Name() string

	// Init initializes backend resources. Called once during registration.
	Init() error

	// Close releases backend resources.
	Close()

	// Scatter performs the whole scatter described by req, returning
	// the number of rejected items (always 0 when req.Trusting).
	// Returns ErrFallbackToCPU if the request cannot be offloaded.
	Scatter(req ScatterRequest) (rejected int, err error)
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers an accelerator for optional offload.
//
// Only one accelerator can be registered. Subsequent calls replace the
// previous one. The accelerator's Init() method is called during
// registration; if Init() fails, the accelerator is not registered and
// the error is returned.
//
// Typical usage via init in backend packages:
//
//	func init() {
//	    pillarscatter.RegisterAccelerator(New())
//	}
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("pillarscatter: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// UnregisterAccelerator removes and closes the registered accelerator,
// if any. Subsequent runs use the CPU engine.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// RegisteredAccelerator returns the currently registered accelerator,
// or nil if none.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}
