package framing

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Render draws the current view onto a new raster of the output size.
func (s *Session) Render() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, s.opts.Width, s.opts.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(s.opts.Background), image.Point{}, draw.Src)
	if s.src == nil {
		return dst
	}

	draw.CatmullRom.Transform(dst, s.transform(), s.src, s.src.Bounds(), draw.Over, nil)
	return dst
}

// transform maps source pixel coordinates to output pixel coordinates.
func (s *Session) transform() f64.Aff3 {
	st := s.state
	cos, sin := math.Cos(st.Rotation), math.Sin(st.Rotation)
	a00, a01 := st.Scale*cos, -st.Scale*sin
	a10, a11 := st.Scale*sin, st.Scale*cos

	// Offset of a source pixel from the point that lands on the frame centre.
	origin := s.src.Bounds().Min
	ox := st.PanX - s.imageW/2 - float64(origin.X)
	oy := st.PanY - s.imageH/2 - float64(origin.Y)

	return f64.Aff3{
		a00, a01, a00*ox + a01*oy + s.frameW/2,
		a10, a11, a10*ox + a11*oy + s.frameH/2,
	}
}

func encodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
