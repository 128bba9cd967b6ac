// Package raster evaluates the little planet projection on the CPU.
//
// The output is rendered in horizontal bands. After each band the
// evaluator reports the fraction of rows finished, so interactive callers
// can show a scan-line style preview filling in from the top. Bands can
// run serially or on a worker pool; in both cases progress events arrive
// in band order and strictly increase.
package raster

import (
	"context"
	"fmt"

	"github.com/gogpu/littleplanet"
	"github.com/gogpu/littleplanet/internal/parallel"
	"github.com/gogpu/littleplanet/projection"
)

// DefaultBands is the number of horizontal bands a pass is split into.
const DefaultBands = 10

// simdLanes is the widest vector width the row kernel is generated for.
// Scratch rows are padded to this multiple.
const simdLanes = 8

// Notifier receives render events. Progress is called after each finished
// band with the fraction of rows completed, strictly increasing up to 1.
// Done is called exactly once with the full RGBA buffer, after the final
// Progress. A cancelled pass calls neither Done nor any further Progress.
//
// Methods are called from the goroutine running Render.
type Notifier interface {
	Progress(fraction float64)
	Done(pix []uint8)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Progress(float64) {}
func (NopNotifier) Done([]uint8)     {}

// ChanNotifier adapts the Notifier callbacks to channels, for callers that
// consume events in a select loop. Nil channels drop their events; sends
// are non-blocking so a slow consumer skips updates instead of stalling
// the render.
type ChanNotifier struct {
	ProgressC chan float64
	DoneC     chan []uint8
}

// Progress implements Notifier.
func (c ChanNotifier) Progress(fraction float64) {
	if c.ProgressC == nil {
		return
	}
	select {
	case c.ProgressC <- fraction:
	default:
	}
}

// Done implements Notifier. Unlike Progress, the completion send blocks:
// the result must not be dropped.
func (c ChanNotifier) Done(pix []uint8) {
	if c.DoneC == nil {
		return
	}
	c.DoneC <- pix
}

// Evaluator renders frames on the CPU. The zero value is not usable;
// construct with NewEvaluator.
//
// An Evaluator is safe for concurrent use, though concurrent Render calls
// each allocate their own output buffer. Use Session to enforce the
// one-pass-at-a-time policy interactive callers want.
type Evaluator struct {
	bands      int
	edge       littleplanet.EdgePolicy
	zclamp     littleplanet.ZClamp
	vectorized bool
	pool       *parallel.WorkerPool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithBands sets the number of horizontal bands per pass. Values below 1
// are ignored. More bands mean finer progress granularity at slightly
// higher notification overhead.
func WithBands(n int) Option {
	return func(e *Evaluator) {
		if n >= 1 {
			e.bands = n
		}
	}
}

// WithWorkers renders bands on a pool of n workers instead of serially.
// n <= 0 uses GOMAXPROCS. Output rows are disjoint per band, so parallel
// evaluation is deterministic; only timing changes.
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		e.pool = parallel.NewWorkerPool(n)
	}
}

// WithEdgePolicy overrides how out-of-range texture coordinates are
// handled. The raster default is littleplanet.EdgeWrap.
func WithEdgePolicy(p littleplanet.EdgePolicy) Option {
	return func(e *Evaluator) { e.edge = p }
}

// WithZClamp overrides the latitude clamp mode. The raster default is
// littleplanet.ZClampUpper.
func WithZClamp(z littleplanet.ZClamp) Option {
	return func(e *Evaluator) { e.zclamp = z }
}

// WithVectorized routes the per-row UV computation through the SIMD
// kernel. The scalar path stays the conformance reference; the kernel
// agrees with it to within a few ulps.
func WithVectorized(on bool) Option {
	return func(e *Evaluator) { e.vectorized = on }
}

// NewEvaluator creates a CPU evaluator with the raster defaults: 10
// serial bands, wraparound edges, upper-bound z clamp, scalar math.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		bands:  DefaultBands,
		edge:   littleplanet.EdgeWrap,
		zclamp: littleplanet.ZClampUpper,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases the worker pool, if any. The evaluator must not be used
// afterwards.
func (e *Evaluator) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// Render projects frame through params and returns the W*H*4 RGBA output
// buffer. Progress and completion are reported through n, which may be
// nil.
//
// Cancellation is checked at band boundaries: once ctx is cancelled no
// further bands start, no completion fires, and Render returns ctx.Err().
// The partially written buffer is discarded.
func (e *Evaluator) Render(ctx context.Context, frame *littleplanet.Frame, p littleplanet.Params, n Notifier) ([]uint8, error) {
	if frame == nil {
		return nil, fmt.Errorf("raster: %w: nil frame", littleplanet.ErrNonPositiveSize)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if n == nil {
		n = NopNotifier{}
	}

	mapper := projection.NewMapperZ(p, e.zclamp)
	out := make([]uint8, p.Width*p.Height*4)
	bands := e.splitBands(p.Height)

	littleplanet.Logger().Debug("raster: pass start",
		"size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"bands", len(bands),
		"parallel", e.pool != nil,
		"vectorized", e.vectorized)

	var err error
	if e.pool == nil {
		err = e.renderSerial(ctx, frame, p, &mapper, out, bands, n)
	} else {
		err = e.renderParallel(ctx, frame, p, &mapper, out, bands, n)
	}
	if err != nil {
		return nil, err
	}

	n.Done(out)
	return out, nil
}

// band is a half-open row range [y0, y1).
type band struct {
	y0, y1 int
}

// splitBands divides height rows into the configured number of bands.
// Every band gets floor(height/bands) rows; the last band absorbs the
// remainder. Heights smaller than the band count degenerate to one band
// per row.
func (e *Evaluator) splitBands(height int) []band {
	bands := e.bands
	if bands > height {
		bands = height
	}
	h := height / bands

	out := make([]band, bands)
	for i := range out {
		out[i] = band{y0: i * h, y1: (i + 1) * h}
	}
	out[bands-1].y1 = height
	return out
}

func (e *Evaluator) renderSerial(ctx context.Context, frame *littleplanet.Frame, p littleplanet.Params, m *projection.Mapper, out []uint8, bands []band, n Notifier) error {
	scratch := e.newScratch(p, m)
	for _, b := range bands {
		if err := ctx.Err(); err != nil {
			littleplanet.Logger().Debug("raster: pass cancelled", "row", b.y0)
			return err
		}
		e.renderBand(frame, p, m, out, b, scratch)
		n.Progress(float64(b.y1) / float64(p.Height))
	}
	return nil
}

func (e *Evaluator) renderParallel(ctx context.Context, frame *littleplanet.Frame, p littleplanet.Params, m *projection.Mapper, out []uint8, bands []band, n Notifier) error {
	completed := make([]chan struct{}, len(bands))
	for i := range completed {
		completed[i] = make(chan struct{})
	}

	work := make([]func(), len(bands))
	for i, b := range bands {
		i, b := i, b
		work[i] = func() {
			defer close(completed[i])
			if ctx.Err() != nil {
				return
			}
			e.renderBand(frame, p, m, out, b, e.newScratch(p, m))
		}
	}

	allDone := make(chan struct{})
	go func() {
		e.pool.ExecuteAll(work)
		close(allDone)
	}()

	// Emit progress in band order as the finished prefix advances, so
	// parallel completion never reorders or regresses the fractions.
	for i, b := range bands {
		<-completed[i]
		if ctx.Err() == nil {
			n.Progress(float64(b.y1) / float64(p.Height))
		}
	}
	<-allDone

	if err := ctx.Err(); err != nil {
		littleplanet.Logger().Debug("raster: pass cancelled")
		return err
	}
	return nil
}

// scratch holds per-pass row buffers for the vectorized path. Each band
// worker gets its own copy, so rows never alias across goroutines.
type scratch struct {
	planeYs []float64
	us      []float64
	vs      []float64
}

func (e *Evaluator) newScratch(p littleplanet.Params, m *projection.Mapper) *scratch {
	if !e.vectorized {
		return nil
	}
	padded := (p.Width + simdLanes - 1) / simdLanes * simdLanes
	s := &scratch{
		planeYs: make([]float64, padded),
		us:      make([]float64, padded),
		vs:      make([]float64, padded),
	}
	_, planeY := m.PlaneOffsets()
	for col := 0; col < p.Width; col++ {
		s.planeYs[col] = float64(col) + planeY
	}
	return s
}

// renderBand fills the output rows [b.y0, b.y1).
func (e *Evaluator) renderBand(frame *littleplanet.Frame, p littleplanet.Params, m *projection.Mapper, out []uint8, b band, s *scratch) {
	srcW, srcH := frame.Width(), frame.Height()
	src := frame.Pix()

	for row := b.y0; row < b.y1; row++ {
		if s != nil {
			e.renderRowVectorized(src, srcW, srcH, p.Width, row, m, out, s)
			continue
		}
		base := row * p.Width * 4
		for col := 0; col < p.Width; col++ {
			u, v := m.UV(float64(col), float64(row))
			e.writePixel(src, srcW, srcH, out, base+col*4, u, v)
		}
	}
}

func (e *Evaluator) renderRowVectorized(src []uint8, srcW, srcH, width, row int, m *projection.Mapper, out []uint8, s *scratch) {
	planeX, _ := m.PlaneOffsets()
	rot := m.RotationMatrix()
	projection.MapRowUV(s.planeYs, s.us, s.vs, float64(row)+planeX, m.Radius(), &rot)

	base := row * width * 4
	for col := 0; col < width; col++ {
		e.writePixel(src, srcW, srcH, out, base+col*4, s.us[col], s.vs[col])
	}
}

// writePixel resolves (u, v) against the edge policy and copies the
// source pixel verbatim, 4 bytes. Discarded pixels keep the buffer's zero
// value, fully transparent black.
func (e *Evaluator) writePixel(src []uint8, srcW, srcH int, out []uint8, di int, u, v float64) {
	if e.edge == littleplanet.EdgeDiscard && projection.Discards(u, v) {
		return
	}
	sx, sy := projection.SourcePixel(u, v, srcW, srcH)
	si := (sy*srcW + sx) * 4
	out[di+0] = src[si+0]
	out[di+1] = src[si+1]
	out[di+2] = src[si+2]
	out[di+3] = src[si+3]
}
