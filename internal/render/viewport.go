package render

import "math"

const (
	MinZoom = 1.0
	MaxZoom = 10.0
)

// Viewport is the per-chart interaction state: the zoom transform of the data
// group and the brush selection in plot pixels. It persists across redraws and
// never touches the sample window.
type Viewport struct {
	zoom  Transform
	brush *[2]float64

	// plot size the state was last clamped against
	w, h float64
}

func NewViewport() *Viewport {
	return &Viewport{zoom: Identity}
}

// SetBounds records the plot area size and re-clamps the transform and brush.
func (v *Viewport) SetBounds(w, h float64) {
	v.w, v.h = w, h
	v.zoom = clampZoom(v.zoom, w, h)
	if v.brush != nil {
		v.SetBrush(v.brush[0], v.brush[1])
	}
}

// Zoom returns the current transform clamped to a w×h plot.
func (v *Viewport) Zoom(w, h float64) Transform {
	if v == nil {
		return Identity
	}
	return clampZoom(v.zoom, w, h)
}

// ZoomAt scales by factor keeping the plot point (px, py) fixed.
func (v *Viewport) ZoomAt(factor, px, py float64) {
	if factor <= 0 || math.IsNaN(factor) {
		return
	}
	z := v.zoom
	k := math.Max(MinZoom, math.Min(MaxZoom, z.K*factor))
	z.X = px - (px-z.X)*(k/z.K)
	z.Y = py - (py-z.Y)*(k/z.K)
	z.K = k
	v.zoom = clampZoom(z, v.w, v.h)
}

// Pan shifts the data group by (dx, dy) pixels.
func (v *Viewport) Pan(dx, dy float64) {
	v.zoom.X += dx
	v.zoom.Y += dy
	v.zoom = clampZoom(v.zoom, v.w, v.h)
}

// SetBrush selects the horizontal pixel interval [x0, x1]. A selection
// narrower than one pixel clears the brush.
func (v *Viewport) SetBrush(x0, x1 float64) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if v.w > 0 {
		x0 = math.Max(0, math.Min(v.w, x0))
		x1 = math.Max(0, math.Min(v.w, x1))
	}
	if x1-x0 < 1 {
		v.brush = nil
		return
	}
	v.brush = &[2]float64{x0, x1}
}

func (v *Viewport) ClearBrush() { v.brush = nil }

// Brush returns the selected pixel interval.
func (v *Viewport) Brush() (x0, x1 float64, ok bool) {
	if v == nil || v.brush == nil {
		return 0, 0, false
	}
	return v.brush[0], v.brush[1], true
}

// Reset drops zoom and brush.
func (v *Viewport) Reset() {
	v.zoom = Identity
	v.brush = nil
}

// clampZoom keeps k in [MinZoom, MaxZoom] and the translation such that the
// scaled data group always covers the whole w×h plot.
func clampZoom(z Transform, w, h float64) Transform {
	if z.K == 0 {
		z.K = 1
	}
	z.K = math.Max(MinZoom, math.Min(MaxZoom, z.K))
	z.X = math.Max(w*(1-z.K), math.Min(0, z.X))
	z.Y = math.Max(h*(1-z.K), math.Min(0, z.Y))
	return z
}
