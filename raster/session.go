package raster

import (
	"context"
	"errors"
	"sync"

	"github.com/gogpu/littleplanet"
)

// ErrSuperseded is returned by a pass that was cancelled because a newer
// request replaced it.
var ErrSuperseded = errors.New("raster: render superseded by newer request")

// Session serializes renders so at most one pass is in flight. Starting a
// new render supersedes the previous one: its context is cancelled and the
// new pass waits for it to wind down before touching anything, so buffers
// from different passes never interleave.
//
// Interactive callers start a render per input event and only ever see
// events from the newest pass.
type Session struct {
	eval *Evaluator

	mu      sync.Mutex
	cancel  context.CancelCauseFunc
	current chan struct{} // closed when the in-flight pass has fully stopped
}

// NewSession wraps an evaluator. The session does not own the evaluator;
// close both when done.
func NewSession(eval *Evaluator) *Session {
	return &Session{eval: eval}
}

// Start launches a render pass in a new goroutine, superseding any pass
// still in flight. Events are delivered to n as usual; a superseded pass
// simply stops without completion.
//
// The returned channel is closed when this pass ends, whether it
// completed, failed, or was superseded.
func (s *Session) Start(ctx context.Context, frame *littleplanet.Frame, p littleplanet.Params, n Notifier) <-chan struct{} {
	s.mu.Lock()
	prev := s.current
	prevCancel := s.cancel

	passCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	s.current = done
	s.cancel = cancel
	s.mu.Unlock()

	if prevCancel != nil {
		prevCancel(ErrSuperseded)
	}

	go func() {
		defer close(done)
		if prev != nil {
			// Never run two passes at once, even for an instant.
			<-prev
		}
		if passCtx.Err() != nil {
			return
		}
		if _, err := s.eval.Render(passCtx, frame, p, n); err != nil {
			if errors.Is(context.Cause(passCtx), ErrSuperseded) {
				littleplanet.Logger().Debug("raster: pass superseded")
				return
			}
			littleplanet.Logger().Warn("raster: pass failed", "error", err)
		}
	}()
	return done
}

// Cancel stops the in-flight pass, if any, and waits for it to stop.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	current := s.current
	s.mu.Unlock()

	if cancel != nil {
		cancel(context.Canceled)
	}
	if current != nil {
		<-current
	}
}

// Wait blocks until the most recently started pass has ended.
func (s *Session) Wait() {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current != nil {
		<-current
	}
}
