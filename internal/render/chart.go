package render

import (
	"fmt"
	"math"

	"github.com/saveugene/pulsedash/internal/vitals"
)

// Fixed vertical scale of the time-series view, in bpm.
const (
	ChartYMin = 40.0
	ChartYMax = 160.0
)

const (
	chartXTicks = 10
	chartYTicks = 8
	xLabelEvery = 5
)

const EmptyChartMessage = "No session active. Start a session to begin real-time monitoring."

// Renderer is a pure function of a snapshot, a region size, the region's
// viewport state and the highlighted target.
type Renderer interface {
	Render(snap []vitals.Sample, size Size, vp *Viewport, highlight string) Frame
}

var (
	_ Renderer = (*ChartRenderer)(nil)
	_ Renderer = (*SummaryRenderer)(nil)
)

// ChartRenderer draws the time-series line-and-point view. It keeps no state
// between calls; zoom and brush live in the caller's Viewport.
type ChartRenderer struct {
	Capacity int
	Layout   Layout
}

func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{
		Capacity: vitals.MaxPoints,
		Layout: Layout{
			Margins:  DefaultMargins,
			Fallback: Size{W: 400, H: 300},
			Labels:   true,
			Radius:   4,
		},
	}
}

// XDomain spans a full window of Capacity indices ending at the newest
// sample, so the plot does not rescale while the window fills. n is the
// number of samples accepted in the session (newest Seq + 1), not the window
// length.
func (r *ChartRenderer) XDomain(snap []vitals.Sample) (lo, hi float64) {
	n := 0
	if len(snap) > 0 {
		n = snap[len(snap)-1].Seq + 1
	}
	c := r.capacity()
	return float64(max(0, n-c)), float64(max(c-1, n-1))
}

func (r *ChartRenderer) capacity() int {
	if r.Capacity <= 0 {
		return vitals.MaxPoints
	}
	return r.Capacity
}

// Render builds the frame for snap in a region of the given size. highlight
// is the key of the hovered point, if any.
func (r *ChartRenderer) Render(snap []vitals.Sample, size Size, vp *Viewport, highlight string) Frame {
	region, plot := r.Layout.resolve(size)
	m := r.Layout.Margins

	x0, x1 := r.XDomain(snap)
	xs := Linear{D0: x0, D1: x1, R0: 0, R1: plot.W}
	ys := Linear{D0: ChartYMin, D1: ChartYMax, R0: plot.H, R1: 0}

	var xTicks, yTicks []tick
	for _, v := range xs.Ticks(chartXTicks) {
		label := ""
		if math.Mod(v, xLabelEvery) == 0 {
			label = formatNum(v)
		}
		xTicks = append(xTicks, tick{pos: xs.Map(v), label: label})
	}
	for _, v := range ys.Ticks(chartYTicks) {
		yTicks = append(yTicks, tick{pos: ys.Map(v), label: formatNum(v)})
	}

	f := Frame{Width: region.W, Height: region.H, Empty: len(snap) == 0}
	f.Commands = append(f.Commands, r.Layout.labels(region, plot, "Real-Time Heart Rate", "Time (s)", "Heart Rate (bpm)")...)
	f.Commands = append(f.Commands, Group{Transform: Translate(m.Left, m.Top), Children: r.Layout.axes(plot, xTicks, yTicks)})

	// Zoom applies to the data group only; axes stay fixed in screen space.
	zoom := vp.Zoom(plot.W, plot.H)
	data := Group{Transform: Translate(m.Left, m.Top).Then(zoom)}

	if x0b, x1b, ok := vp.Brush(); ok {
		data.Children = append(data.Children, Rect{X: x0b, Y: 0, W: x1b - x0b, H: plot.H,
			Style: Style{Fill: ColorBrush, Stroke: "#ffffff"}})
		f.Selection = &Range{Lo: xs.Invert(x0b), Hi: xs.Invert(x1b)}
	}

	if len(snap) > 1 {
		pts := make([]Point, len(snap))
		for i, s := range snap {
			pts[i] = Point{X: xs.Map(float64(s.Seq)), Y: ys.Map(s.Value)}
		}
		data.Children = append(data.Children, Polyline{Points: pts, Style: Style{Stroke: ColorLine, StrokeWidth: 2.5}})
	}

	radius := r.Layout.Radius
	if radius <= 0 {
		radius = 4
	}
	for i, s := range snap {
		key := fmt.Sprintf("chart/%d", s.Seq)
		fill := ColorPointIn
		if vitals.OutOfRange(s.Value) {
			fill = ColorPointOut
		}
		c := Circle{X: xs.Map(float64(s.Seq)), Y: ys.Map(s.Value), R: radius, Key: key,
			Style: highlightStyle(Style{Fill: fill}, key == highlight)}
		data.Children = append(data.Children, c)

		center := data.Transform.Apply(Point{X: c.X, Y: c.Y})
		reach := radius*zoom.K + 3
		f.Targets = append(f.Targets, Target{
			Key:  key,
			Text: fmt.Sprintf("Value: %s bpm\nIndex: %d", formatNum(s.Value), i),
			X:    center.X - reach, Y: center.Y - reach,
			W: 2 * reach, H: 2 * reach,
		})
	}
	f.Commands = append(f.Commands, data)

	if f.Empty {
		f.Commands = append(f.Commands, Text{X: m.Left + plot.W/2, Y: m.Top + plot.H/2, Body: EmptyChartMessage,
			Size: r.Layout.fontSize(), Color: ColorMuted, Anchor: AnchorMiddle})
	}
	return f
}
