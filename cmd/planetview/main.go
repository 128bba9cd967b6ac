// Command planetview is an interactive little planet viewer.
//
// Drag with the left mouse button to tilt the planet, Q and E to spin
// it, the mouse wheel to zoom and the arrow keys to shift the
// projection center. Renders run asynchronously through a
// raster.Session, so dragging supersedes the in-flight pass instead of
// queueing behind it.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	// Panorama decoders.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/gogpu/littleplanet"
	"github.com/gogpu/littleplanet/raster"
)

const (
	viewWidth  = 960
	viewHeight = 720

	dragSpeed   = 0.005
	spinSpeed   = 0.03
	zoomSpeed   = 0.1
	offsetSpeed = 0.01
)

type game struct {
	session  *raster.Session
	frame    *littleplanet.Frame
	params   littleplanet.Params
	notifier raster.ChanNotifier

	view     *ebiten.Image
	progress float64
	dragging bool
	lastX    int
	lastY    int
	dirty    bool
}

func newGame(frame *littleplanet.Frame) *game {
	g := &game{
		session: raster.NewSession(raster.NewEvaluator(
			raster.WithWorkers(0),
			raster.WithVectorized(true),
		)),
		frame:  frame,
		params: littleplanet.DefaultParams(viewWidth, viewHeight),
		notifier: raster.ChanNotifier{
			ProgressC: make(chan float64, 16),
			DoneC:     make(chan []uint8, 2),
		},
		view:  ebiten.NewImage(viewWidth, viewHeight),
		dirty: true,
	}
	return g
}

func (g *game) Update() error {
	g.handleInput()

	if g.dirty {
		g.session.Start(context.Background(), g.frame, g.params, g.notifier)
		g.dirty = false
	}

	for {
		select {
		case f := <-g.notifier.ProgressC:
			g.progress = f
		case pix := <-g.notifier.DoneC:
			g.view.WritePixels(pix)
			g.progress = 1
		default:
			return nil
		}
	}
}

func (g *game) handleInput() {
	// Left mouse drag tilts around the X and Y axes.
	x, y := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			dx, dy := x-g.lastX, y-g.lastY
			if dx != 0 || dy != 0 {
				g.params.Beta += float64(dx) * dragSpeed
				g.params.Alpha -= float64(dy) * dragSpeed
				g.dirty = true
			}
		}
		g.dragging = true
		g.lastX, g.lastY = x, y
	} else {
		g.dragging = false
	}

	if ebiten.IsKeyPressed(ebiten.KeyQ) {
		g.params.Gamma -= spinSpeed
		g.dirty = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyE) {
		g.params.Gamma += spinSpeed
		g.dirty = true
	}

	if _, wheelY := ebiten.Wheel(); wheelY != 0 {
		g.params.Scale *= math.Pow(1+zoomSpeed, wheelY)
		g.params.Scale = math.Max(0.05, math.Min(g.params.Scale, 50))
		g.dirty = true
	}

	arrows := []struct {
		key ebiten.Key
		dst *float64
		d   float64
	}{
		{ebiten.KeyArrowLeft, &g.params.OffsetHor, -offsetSpeed},
		{ebiten.KeyArrowRight, &g.params.OffsetHor, offsetSpeed},
		{ebiten.KeyArrowUp, &g.params.OffsetVer, -offsetSpeed},
		{ebiten.KeyArrowDown, &g.params.OffsetVer, offsetSpeed},
	}
	for _, a := range arrows {
		if ebiten.IsKeyPressed(a.key) {
			*a.dst += a.d
			g.dirty = true
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.params = littleplanet.DefaultParams(viewWidth, viewHeight)
		g.dirty = true
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.view, nil)
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"scale %.2f  alpha %.2f  beta %.2f  gamma %.2f  progress %3.0f%%",
		g.params.Scale, g.params.Alpha, g.params.Beta, g.params.Gamma, g.progress*100))
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return viewWidth, viewHeight
}

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: planetview [-v] <panorama.png|jpg|webp>\n")
		os.Exit(2)
	}
	if *verbose {
		littleplanet.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	frame, err := loadPanorama(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "planetview:", err)
		os.Exit(1)
	}

	g := newGame(frame)
	defer g.session.Cancel()

	ebiten.SetWindowTitle("planetview")
	ebiten.SetWindowSize(viewWidth, viewHeight)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil {
		fmt.Fprintln(os.Stderr, "planetview:", err)
		os.Exit(1)
	}
}

func loadPanorama(path string) (*littleplanet.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return littleplanet.FrameFromImage(img)
}
