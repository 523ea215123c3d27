package engine

import (
	"runtime"
	"sync/atomic"
	"testing"
)

// =============================================================================
// Pool Lifecycle Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := newWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestWorkerPool_CreateZeroWorkers(t *testing.T) {
	pool := newWorkerPool(0)
	defer pool.Close()

	expected := runtime.GOMAXPROCS(0)
	if pool.Workers() != expected {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), expected)
	}
}

func TestWorkerPool_Close(t *testing.T) {
	pool := newWorkerPool(2)
	pool.Close()

	if pool.IsRunning() {
		t.Error("pool should not be running after Close")
	}

	// Close is idempotent.
	pool.Close()

	// ExecuteAll after Close is a no-op.
	ran := false
	pool.ExecuteAll([]func(){func() { ran = true }})
	if ran {
		t.Error("work should not run on a closed pool")
	}
}

// =============================================================================
// ExecuteAll Tests
// =============================================================================

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := newWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 4)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}

	pool.ExecuteAll(work)

	if got := counter.Load(); got != 4 {
		t.Errorf("executed %d tasks, want 4", got)
	}
}

func TestWorkerPool_ExecuteAllAssignsByIndex(t *testing.T) {
	// Task i must run on worker i: scatter workers are bound to their
	// partition by identity.
	pool := newWorkerPool(3)
	defer pool.Close()

	ran := make([]atomic.Bool, 3)
	work := make([]func(), 3)
	for i := range work {
		work[i] = func() { ran[i].Store(true) }
	}

	pool.ExecuteAll(work)

	for i := range ran {
		if !ran[i].Load() {
			t.Errorf("task %d did not run", i)
		}
	}
}

func TestWorkerPool_ExecuteAllEmpty(t *testing.T) {
	pool := newWorkerPool(2)
	defer pool.Close()

	// Must not block or panic.
	pool.ExecuteAll(nil)
	pool.ExecuteAll([]func(){})
}

func TestWorkerPool_SequentialBatches(t *testing.T) {
	pool := newWorkerPool(2)
	defer pool.Close()

	var counter atomic.Int64
	for range 10 {
		work := []func(){
			func() { counter.Add(1) },
			func() { counter.Add(1) },
		}
		pool.ExecuteAll(work)
	}

	if got := counter.Load(); got != 20 {
		t.Errorf("executed %d tasks, want 20", got)
	}
}

// =============================================================================
// Slot Pool Tests
// =============================================================================

func TestSlotPool_DepthTwoAlternation(t *testing.T) {
	p := newSlotPool(4)

	a := p.acquire()
	p.release(a)
	b := p.acquire()
	p.release(b)
	c := p.acquire()
	p.release(c)

	if a == b {
		t.Error("consecutive acquires should alternate slots")
	}
	if a != c {
		t.Error("ring of depth 2 should return the first slot on the third acquire")
	}
}

func TestSlotPool_SlotSizing(t *testing.T) {
	p := newSlotPool(64)
	s := p.acquire()

	if len(s.feat) != 64 {
		t.Errorf("feature slot holds %d elements, want 64", len(s.feat))
	}
	if len(s.coord) != coordBlock {
		t.Errorf("coordinate slot holds %d elements, want %d", len(s.coord), coordBlock)
	}
	if s.ready {
		t.Error("freshly acquired slot should not be ready")
	}
}
