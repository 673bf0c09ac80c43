package framing

import "math"

// Clamp limits v to [lo, hi]. Reversed bounds are swapped.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Min(hi, math.Max(lo, v))
}

// FitCoverScale returns the scale at which the axis-aligned bounding box of
// the image rotated by rotation covers the frame. Degenerate sizes give 1.
//
// The result is exact at multiples of 90°. Between them the bounding box
// overstates the rotated footprint; see CoverScale.
func FitCoverScale(imageW, imageH, frameW, frameH, rotation float64) float64 {
	if imageW <= 0 || imageH <= 0 || frameW <= 0 || frameH <= 0 {
		return 1
	}
	cos := math.Abs(math.Cos(rotation))
	sin := math.Abs(math.Sin(rotation))
	rotatedW := imageW*cos + imageH*sin
	rotatedH := imageW*sin + imageH*cos
	return math.Max(frameW/rotatedW, frameH/rotatedH)
}

// CoverScale returns the smallest scale at which the rotated image contains
// every corner of the frame, i.e. the frame's footprint in image space fits
// inside the image. Degenerate sizes give 1.
func CoverScale(imageW, imageH, frameW, frameH, rotation float64) float64 {
	if imageW <= 0 || imageH <= 0 || frameW <= 0 || frameH <= 0 {
		return 1
	}
	extentW, extentH := frameExtent(frameW, frameH, rotation)
	return math.Max(extentW/imageW, extentH/imageH)
}

// frameExtent is the size of the frame rotated back into image orientation.
func frameExtent(frameW, frameH, rotation float64) (float64, float64) {
	cos := math.Abs(math.Cos(rotation))
	sin := math.Abs(math.Sin(rotation))
	return frameW*cos + frameH*sin, frameW*sin + frameH*cos
}

// panLimits returns how far the image may be panned from centre on each axis
// before a frame corner leaves the image. The four frame corners are mapped
// into image space; the constraints they impose are separable per axis.
func panLimits(imageW, imageH, frameW, frameH, rotation, scale float64) (float64, float64) {
	extentW, extentH := frameExtent(frameW, frameH, rotation)
	limX := imageW/2 - extentW/(2*scale)
	limY := imageH/2 - extentH/(2*scale)
	return math.Max(0, limX), math.Max(0, limY)
}

// normalizeAngle maps r into [0, 2π).
func normalizeAngle(r float64) float64 {
	const tau = 2 * math.Pi
	r = math.Mod(r, tau)
	if r < 0 {
		r += tau
	}
	if r >= tau {
		r = 0
	}
	return r
}
