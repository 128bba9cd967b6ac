// Package server exposes the raster evaluator over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-chi/chi/v5"

	// Source image decoders.
	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"github.com/gogpu/littleplanet"
	"github.com/gogpu/littleplanet/raster"
)

// maxUploadBytes bounds the multipart request body.
const maxUploadBytes = 64 << 20

// Server handles the render API. One evaluator is shared across
// requests; raster.Evaluator is safe for concurrent passes.
type Server struct {
	startTime time.Time
	version   string
	eval      *raster.Evaluator
}

// NewServer creates a server around eval. The caller keeps ownership of
// the evaluator and closes it after the HTTP server shuts down.
func NewServer(version string, eval *raster.Evaluator) *Server {
	return &Server{
		startTime: time.Now(),
		version:   version,
		eval:      eval,
	}
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.GetHealth)
	r.Post("/render", s.CreateRender)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    int       `json:"uptime"`
	Version   string    `json:"version"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// GetHealth implements the health check endpoint.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    int(time.Since(s.startTime).Seconds()),
		Version:   s.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		littleplanet.Logger().Error("server: encode health response", "error", err)
	}
}

// CreateRender implements the render endpoint. The request is multipart
// form data with an "image" file part (PNG, JPEG or WebP) and optional
// projection parameters; the response body is the projected image.
func (s *Server) CreateRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_FORM",
			"request must be multipart form data with an 'image' part")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "MISSING_IMAGE", "missing 'image' file part")
		return
	}
	defer file.Close()

	img, imgFormat, err := image.Decode(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_IMAGE",
			fmt.Sprintf("cannot decode image: %v", err))
		return
	}

	frame, err := littleplanet.FrameFromImage(img)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_IMAGE", err.Error())
		return
	}

	params, err := paramsFromForm(r, frame)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_PARAMS", err.Error())
		return
	}

	outFormat := r.FormValue("format")
	if outFormat == "" {
		outFormat = "png"
	}
	if outFormat != "png" && outFormat != "webp" {
		s.writeError(w, http.StatusBadRequest, "INVALID_PARAMS",
			fmt.Sprintf("unknown output format %q (want png or webp)", outFormat))
		return
	}

	littleplanet.Logger().Debug("server: render request",
		"source", imgFormat,
		"output", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"format", outFormat)

	pix, err := s.eval.Render(r.Context(), frame, params, nil)
	if err != nil {
		s.handleRenderError(w, r, err)
		return
	}

	out := &image.NRGBA{
		Pix:    pix,
		Stride: params.Width * 4,
		Rect:   image.Rect(0, 0, params.Width, params.Height),
	}

	switch outFormat {
	case "png":
		w.Header().Set("Content-Type", "image/png")
		err = png.Encode(w, out)
	case "webp":
		w.Header().Set("Content-Type", "image/webp")
		err = nativewebp.Encode(w, out, nil)
	}
	if err != nil {
		littleplanet.Logger().Error("server: write render response", "error", err)
	}
}

// paramsFromForm builds Params from the form fields, defaulting to the
// standard view when a field is absent. The output size defaults to the
// source frame size.
func paramsFromForm(r *http.Request, frame *littleplanet.Frame) (littleplanet.Params, error) {
	width, err := formInt(r, "width", frame.Width())
	if err != nil {
		return littleplanet.Params{}, err
	}
	height, err := formInt(r, "height", frame.Height())
	if err != nil {
		return littleplanet.Params{}, err
	}

	p := littleplanet.DefaultParams(width, height)
	fields := []struct {
		name string
		dst  *float64
	}{
		{"scale", &p.Scale},
		{"alpha", &p.Alpha},
		{"beta", &p.Beta},
		{"gamma", &p.Gamma},
		{"offset_hor", &p.OffsetHor},
		{"offset_ver", &p.OffsetVer},
	}
	for _, f := range fields {
		if err := formFloat(r, f.name, f.dst); err != nil {
			return littleplanet.Params{}, err
		}
	}

	if err := p.Validate(); err != nil {
		return littleplanet.Params{}, err
	}
	return p, nil
}

func formFloat(r *http.Request, name string, dst *float64) error {
	raw := r.FormValue(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", name, raw)
	}
	*dst = v
	return nil
}

func formInt(r *http.Request, name string, def int) (int, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func (s *Server) handleRenderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case r.Context().Err() != nil:
		// Client went away or the timeout middleware fired.
		s.writeError(w, http.StatusRequestTimeout, "RENDER_CANCELLED", "render cancelled")
	case errors.Is(err, littleplanet.ErrNonPositiveScale),
		errors.Is(err, littleplanet.ErrNonPositiveSize):
		s.writeError(w, http.StatusBadRequest, "INVALID_PARAMS", err.Error())
	default:
		littleplanet.Logger().Error("server: render failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "RENDER_FAILED", "internal render error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorCode, Message: message}); err != nil {
		littleplanet.Logger().Error("server: encode error response", "error", err)
	}
}
