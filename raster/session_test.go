package raster

import (
	"context"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/littleplanet"
)

// slowNotifier records events and stalls each band to keep a pass in
// flight long enough to be superseded.
type slowNotifier struct {
	mu        sync.Mutex
	delay     time.Duration
	fractions []float64
	completed int
}

func (n *slowNotifier) Progress(f float64) {
	n.mu.Lock()
	n.fractions = append(n.fractions, f)
	n.mu.Unlock()
	time.Sleep(n.delay)
}

func (n *slowNotifier) Done([]uint8) {
	n.mu.Lock()
	n.completed++
	n.mu.Unlock()
}

func (n *slowNotifier) snapshot() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.fractions), n.completed
}

func TestSessionCompletes(t *testing.T) {
	frame := mustUniformFrame(t, 8, 8, color.NRGBA{R: 1, A: 255})
	e := NewEvaluator()
	s := NewSession(e)

	n := &slowNotifier{}
	<-s.Start(context.Background(), frame, littleplanet.DefaultParams(40, 40), n)

	progress, completed := n.snapshot()
	if completed != 1 {
		t.Errorf("completions = %d, want 1", completed)
	}
	if progress == 0 {
		t.Error("no progress events delivered")
	}
}

func TestSessionSupersedes(t *testing.T) {
	frame := mustUniformFrame(t, 8, 8, color.NRGBA{R: 1, A: 255})
	e := NewEvaluator()
	s := NewSession(e)

	old := &slowNotifier{delay: 20 * time.Millisecond}
	s.Start(context.Background(), frame, littleplanet.DefaultParams(40, 600), old)

	// Supersede while the first pass is still working through its bands.
	time.Sleep(30 * time.Millisecond)
	fresh := &slowNotifier{}
	<-s.Start(context.Background(), frame, littleplanet.DefaultParams(40, 40), fresh)

	if _, completed := old.snapshot(); completed != 0 {
		t.Error("superseded pass delivered a completion event")
	}
	if _, completed := fresh.snapshot(); completed != 1 {
		t.Error("superseding pass did not complete")
	}
}

func TestSessionNeverInterleaves(t *testing.T) {
	frame := mustUniformFrame(t, 8, 8, color.NRGBA{R: 1, A: 255})
	e := NewEvaluator()
	s := NewSession(e)

	// Fire a burst of supersessions; only the last may complete, and
	// thanks to the wait-for-predecessor rule no two passes overlap.
	notifiers := make([]*slowNotifier, 6)
	var last <-chan struct{}
	for i := range notifiers {
		notifiers[i] = &slowNotifier{delay: 5 * time.Millisecond}
		last = s.Start(context.Background(), frame, littleplanet.DefaultParams(30, 300), notifiers[i])
	}
	<-last

	total := 0
	for _, n := range notifiers {
		_, completed := n.snapshot()
		total += completed
	}
	if total > 1 {
		t.Errorf("%d passes completed, want at most 1", total)
	}
	if _, completed := notifiers[len(notifiers)-1].snapshot(); completed != 1 {
		t.Error("final pass did not complete")
	}
}

func TestSessionCancel(t *testing.T) {
	frame := mustUniformFrame(t, 8, 8, color.NRGBA{R: 1, A: 255})
	e := NewEvaluator()
	s := NewSession(e)

	n := &slowNotifier{delay: 20 * time.Millisecond}
	s.Start(context.Background(), frame, littleplanet.DefaultParams(40, 600), n)
	time.Sleep(30 * time.Millisecond)
	s.Cancel()

	if _, completed := n.snapshot(); completed != 0 {
		t.Error("cancelled pass delivered a completion event")
	}

	// The session stays usable after a cancel.
	fresh := &slowNotifier{}
	<-s.Start(context.Background(), frame, littleplanet.DefaultParams(20, 20), fresh)
	if _, completed := fresh.snapshot(); completed != 1 {
		t.Error("pass after Cancel did not complete")
	}
}

func TestSessionWaitNoPass(t *testing.T) {
	s := NewSession(NewEvaluator())
	s.Wait()
	s.Cancel()
}
