package parallel

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestExecuteAllRunsEverything(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var count atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { count.Add(1) }
	}

	p.ExecuteAll(work)

	if got := count.Load(); got != 100 {
		t.Errorf("executed %d items, want 100", got)
	}
}

func TestExecuteAllUnevenWork(t *testing.T) {
	p := NewWorkerPool(3)
	defer p.Close()

	var count atomic.Int64
	work := make([]func(), 12)
	for i := range work {
		i := i
		work[i] = func() {
			if i == 0 {
				time.Sleep(10 * time.Millisecond)
			}
			count.Add(1)
		}
	}

	start := time.Now()
	p.ExecuteAll(work)
	elapsed := time.Since(start)

	if got := count.Load(); got != 12 {
		t.Errorf("executed %d items, want 12", got)
	}
	// The slow item must not serialize the rest.
	if elapsed > 5*time.Second {
		t.Errorf("ExecuteAll took %v", elapsed)
	}
}

func TestExecuteAllEmpty(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()
	p.ExecuteAll(nil)
}

func TestDefaultWorkerCount(t *testing.T) {
	p := NewWorkerPool(0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d", p.Workers())
	}
}

func TestCloseIdempotent(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()
	p.Close()

	if p.IsRunning() {
		t.Error("pool reports running after Close")
	}

	// ExecuteAll on a closed pool is a no-op.
	var count atomic.Int64
	p.ExecuteAll([]func(){func() { count.Add(1) }})
	if count.Load() != 0 {
		t.Errorf("closed pool executed %d items", count.Load())
	}
}
