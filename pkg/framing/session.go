// Package framing fits a source image into a fixed-size card frame.
//
// A Session holds the pan, zoom and rotation a user applies to one source
// image. After every operation the session re-derives its zoom bounds and
// clamps the pan so the rotated, scaled image always covers the whole frame.
// Commit renders the frame to PNG; Cancel discards the session.
//
// Screen and image space are related by
//
//	q = R(rotation) * scale * (u - centre + pan)
//
// where u is an image pixel position and q is relative to the frame centre.
package framing

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
)

// Default frame size and zoom ceiling.
const (
	DefaultWidth   = 750
	DefaultHeight  = 1050
	DefaultMaxZoom = 8.0

	// WheelStep and ButtonStep are the zoom factors of one wheel notch and one
	// zoom button press.
	WheelStep  = 1.075
	ButtonStep = 1.1
)

var (
	// ErrCancelled is the rejection reason of a session the user abandoned.
	ErrCancelled = errors.New("cancelled")
	// ErrClosed is returned by operations on a committed session.
	ErrClosed = errors.New("framing session closed")
)

// Options configures a session.
type Options struct {
	// Width and Height are the output raster size in pixels.
	Width  int
	Height int
	// Background fills any pixel the image does not cover.
	Background color.Color
	// MaxZoom is the ceiling as a multiple of the minimum cover scale.
	MaxZoom float64
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Background == nil {
		o.Background = color.White
	}
	if o.MaxZoom < 1 {
		o.MaxZoom = DefaultMaxZoom
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// State is a snapshot of the view.
type State struct {
	PanX     float64
	PanY     float64
	Scale    float64
	Rotation float64
	MinScale float64
	MaxScale float64
}

// ZoomPercent is the zoom relative to the minimum cover scale.
func (s State) ZoomPercent() float64 {
	if s.MinScale == 0 {
		return 100
	}
	return s.Scale / s.MinScale * 100
}

// Session is single-user interactive framing state. It is not safe for
// concurrent use.
type Session struct {
	src    image.Image
	opts   Options
	logger *slog.Logger

	imageW, imageH float64
	frameW, frameH float64

	state  State
	closed error
}

// Open decodes r and starts a session over it.
func Open(ctx context.Context, r io.Reader, opts Options) (*Session, error) {
	img, format, err := Decode(ctx, r)
	if err != nil {
		return nil, err
	}
	s := NewSession(img, opts)
	s.logger.Debug("framing session opened",
		slog.String("format", format),
		slog.Int("width", img.Bounds().Dx()),
		slog.Int("height", img.Bounds().Dy()))
	return s, nil
}

// NewSession starts a session over an already decoded image.
func NewSession(img image.Image, opts Options) *Session {
	opts = opts.withDefaults()
	b := img.Bounds()
	s := &Session{
		src:    img,
		opts:   opts,
		logger: opts.Logger,
		imageW: float64(b.Dx()),
		imageH: float64(b.Dy()),
		frameW: float64(opts.Width),
		frameH: float64(opts.Height),
	}
	s.reset()
	return s
}

// State returns the current view.
func (s *Session) State() State {
	return s.state
}

// Size returns the output raster size.
func (s *Session) Size() (int, int) {
	return s.opts.Width, s.opts.Height
}

// Rotate adds delta radians to the rotation.
func (s *Session) Rotate(delta float64) error {
	if s.closed != nil {
		return s.closed
	}
	if !finite(delta) {
		return fmt.Errorf("invalid rotation %v", delta)
	}
	s.state.Rotation = normalizeAngle(s.state.Rotation + delta)
	s.updateBounds()
	s.state.Scale = Clamp(s.state.Scale, s.state.MinScale, s.state.MaxScale)
	s.clampPan()
	return nil
}

// ZoomBy multiplies the scale by factor.
func (s *Session) ZoomBy(factor float64) error {
	if s.closed != nil {
		return s.closed
	}
	if factor <= 0 || !finite(factor) {
		return fmt.Errorf("invalid zoom factor %v", factor)
	}
	return s.SetScale(s.state.Scale * factor)
}

// SetScale sets an absolute scale, clamped to the current bounds.
func (s *Session) SetScale(scale float64) error {
	if s.closed != nil {
		return s.closed
	}
	if math.IsNaN(scale) {
		return fmt.Errorf("invalid scale %v", scale)
	}
	s.state.Scale = Clamp(scale, s.state.MinScale, s.state.MaxScale)
	s.clampPan()
	return nil
}

// ZoomToSlider maps a slider position to a scale, linearly in log space
// between the minimum and maximum scale. Positions up to 1 are read as
// [0,1]; larger values as a percentage in [0,100].
func (s *Session) ZoomToSlider(pos float64) error {
	if s.closed != nil {
		return s.closed
	}
	if pos > 1 {
		pos /= 100
	}
	pos = Clamp(pos, 0, 1)
	lo, hi := math.Log(s.state.MinScale), math.Log(s.state.MaxScale)
	return s.SetScale(math.Exp(lo + pos*(hi-lo)))
}

// SliderPosition is the inverse of ZoomToSlider in [0,1].
func (s *Session) SliderPosition() float64 {
	lo, hi := math.Log(s.state.MinScale), math.Log(s.state.MaxScale)
	if hi == lo {
		return 0
	}
	return Clamp((math.Log(s.state.Scale)-lo)/(hi-lo), 0, 1)
}

// Pan moves the image by a screen-space delta in output pixels.
func (s *Session) Pan(dx, dy float64) error {
	if s.closed != nil {
		return s.closed
	}
	if !finite(dx) || !finite(dy) {
		return fmt.Errorf("invalid pan offset (%v, %v)", dx, dy)
	}
	cos, sin := math.Cos(s.state.Rotation), math.Sin(s.state.Rotation)
	s.state.PanX += (dx*cos + dy*sin) / s.state.Scale
	s.state.PanY += (-dx*sin + dy*cos) / s.state.Scale
	s.clampPan()
	return nil
}

// Reset returns to the centred, unrotated, fully zoomed-out view.
func (s *Session) Reset() error {
	if s.closed != nil {
		return s.closed
	}
	s.reset()
	return nil
}

// Export renders the current view as PNG without closing the session.
func (s *Session) Export(w io.Writer) error {
	if s.closed != nil {
		return s.closed
	}
	return encodePNG(w, s.Render())
}

// Commit renders the view as PNG and closes the session.
func (s *Session) Commit(w io.Writer) error {
	if err := s.Export(w); err != nil {
		return err
	}
	s.closed = ErrClosed
	s.logger.Debug("framing session committed",
		slog.Float64("scale", s.state.Scale),
		slog.Float64("rotation", s.state.Rotation))
	return nil
}

// Cancel discards the session. Later operations return ErrCancelled.
// Cancelling twice, or after Commit, is a no-op.
func (s *Session) Cancel() {
	if s.closed != nil {
		return
	}
	s.closed = ErrCancelled
	s.src = nil
	s.logger.Debug("framing session cancelled")
}

// Err reports why the session is closed, or nil while it is open.
func (s *Session) Err() error {
	return s.closed
}

func (s *Session) reset() {
	s.state = State{}
	s.updateBounds()
	s.state.Scale = s.state.MinScale
	s.clampPan()
}

func (s *Session) updateBounds() {
	minScale := math.Max(
		FitCoverScale(s.imageW, s.imageH, s.frameW, s.frameH, s.state.Rotation),
		CoverScale(s.imageW, s.imageH, s.frameW, s.frameH, s.state.Rotation),
	)
	s.state.MinScale = minScale
	s.state.MaxScale = minScale * s.opts.MaxZoom
}

func (s *Session) clampPan() {
	limX, limY := panLimits(s.imageW, s.imageH, s.frameW, s.frameH, s.state.Rotation, s.state.Scale)
	s.state.PanX = Clamp(s.state.PanX, -limX, limX)
	s.state.PanY = Clamp(s.state.PanY, -limY, limY)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
