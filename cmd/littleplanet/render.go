package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/image/draw"

	// Source image decoders.
	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"github.com/gogpu/littleplanet"
	"github.com/gogpu/littleplanet/raster"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a panorama to a little planet image",
	Long: `Render an equirectangular panorama to a little planet image.

Rotation angles are given in degrees. Offsets move the projection
center across the output plane, 0.5 being centered.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("input", "i", "", "input panorama (PNG, JPEG or WebP, required)")
	renderCmd.Flags().StringP("output", "o", "planet.png", "output file")
	renderCmd.Flags().StringP("format", "f", "", "output format (png|webp, default from output extension)")

	renderCmd.Flags().Float64P("scale", "s", 1.0, "zoom factor, larger is closer")
	renderCmd.Flags().Float64("alpha", 0, "rotation around the X axis in degrees")
	renderCmd.Flags().Float64("beta", 0, "rotation around the Y axis in degrees")
	renderCmd.Flags().Float64("gamma", 0, "rotation around the Z axis in degrees")
	renderCmd.Flags().Float64("offset-hor", 0.5, "horizontal projection center (0..1)")
	renderCmd.Flags().Float64("offset-ver", 0.5, "vertical projection center (0..1)")

	renderCmd.Flags().Int("width", 0, "output width in pixels (default: source width)")
	renderCmd.Flags().Int("height", 0, "output height in pixels (default: source height)")
	renderCmd.Flags().Int("max-source", 0, "downscale source so its long edge fits this many pixels")

	renderCmd.Flags().IntP("workers", "w", 0, "parallel band workers (0 = serial)")
	renderCmd.Flags().Int("bands", raster.DefaultBands, "horizontal bands per pass")
	renderCmd.Flags().Bool("vectorized", false, "use the SIMD row kernel")
	renderCmd.Flags().String("edge", "wrap", "edge policy for out-of-range texture coordinates (wrap|discard)")
	renderCmd.Flags().Bool("gpu", false, "render on the GPU fragment pipeline")
	renderCmd.Flags().BoolP("quiet", "q", false, "suppress progress output")

	for _, name := range []string{
		"input", "output", "format", "scale", "alpha", "beta", "gamma",
		"offset-hor", "offset-ver", "width", "height", "max-source",
		"workers", "bands", "vectorized", "edge", "gpu", "quiet",
	} {
		viper.BindPFlag("render."+name, renderCmd.Flags().Lookup(name))
	}
}

// progressPrinter writes a carriage-return progress line to stderr.
type progressPrinter struct{}

func (progressPrinter) Progress(fraction float64) {
	fmt.Fprintf(os.Stderr, "\rrendering... %3.0f%%", fraction*100)
}

func (progressPrinter) Done([]uint8) {
	fmt.Fprintln(os.Stderr, "\rrendering... done")
}

func runRender(cmd *cobra.Command, args []string) error {
	input := viper.GetString("render.input")
	if input == "" {
		return fmt.Errorf("input panorama is required (use --input)")
	}
	output := viper.GetString("render.output")

	format := viper.GetString("render.format")
	if format == "" {
		format = formatFromExtension(output)
	}
	if format != "png" && format != "webp" {
		return fmt.Errorf("unknown output format: %s (want png or webp)", format)
	}

	frame, err := loadFrame(input, viper.GetInt("render.max-source"))
	if err != nil {
		return err
	}

	width := viper.GetInt("render.width")
	if width == 0 {
		width = frame.Width()
	}
	height := viper.GetInt("render.height")
	if height == 0 {
		height = frame.Height()
	}

	const degToRad = math.Pi / 180
	params := littleplanet.Params{
		Scale:     viper.GetFloat64("render.scale"),
		Alpha:     viper.GetFloat64("render.alpha") * degToRad,
		Beta:      viper.GetFloat64("render.beta") * degToRad,
		Gamma:     viper.GetFloat64("render.gamma") * degToRad,
		OffsetHor: viper.GetFloat64("render.offset-hor"),
		OffsetVer: viper.GetFloat64("render.offset-ver"),
		Width:     width,
		Height:    height,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	var pix []uint8
	if viper.GetBool("render.gpu") {
		pix, err = renderGPU(frame, params)
	} else {
		pix, err = renderCPU(cmd.Context(), frame, params)
	}
	if err != nil {
		return err
	}

	return writeImage(output, format, pix, width, height)
}

func renderCPU(ctx context.Context, frame *littleplanet.Frame, params littleplanet.Params) ([]uint8, error) {
	edge := littleplanet.EdgeWrap
	switch viper.GetString("render.edge") {
	case "wrap":
	case "discard":
		edge = littleplanet.EdgeDiscard
	default:
		return nil, fmt.Errorf("unknown edge policy: %s (want wrap or discard)", viper.GetString("render.edge"))
	}

	opts := []raster.Option{
		raster.WithBands(viper.GetInt("render.bands")),
		raster.WithEdgePolicy(edge),
		raster.WithVectorized(viper.GetBool("render.vectorized")),
	}
	if workers := viper.GetInt("render.workers"); workers > 0 {
		opts = append(opts, raster.WithWorkers(workers))
	}

	eval := raster.NewEvaluator(opts...)
	defer eval.Close()

	var notifier raster.Notifier
	if !viper.GetBool("render.quiet") {
		notifier = progressPrinter{}
	}
	return eval.Render(ctx, frame, params, notifier)
}

// loadFrame decodes the panorama and optionally downscales it so the
// long edge fits maxEdge pixels.
func loadFrame(path string, maxEdge int) (*littleplanet.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	b := img.Bounds()
	long := max(b.Dx(), b.Dy())
	if maxEdge > 0 && long > maxEdge {
		sw := b.Dx() * maxEdge / long
		sh := b.Dy() * maxEdge / long
		scaled := image.NewNRGBA(image.Rect(0, 0, sw, sh))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
		img = scaled
	}

	return littleplanet.FrameFromImage(img)
}

func writeImage(path, format string, pix []uint8, width, height int) error {
	out := &image.NRGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	switch format {
	case "webp":
		err = nativewebp.Encode(f, out, nil)
	default:
		err = png.Encode(f, out)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func formatFromExtension(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return "webp"
	}
	return "png"
}
