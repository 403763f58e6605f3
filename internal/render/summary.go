package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/saveugene/pulsedash/internal/vitals"
)

const (
	// SummaryBars is how many recent samples the bar view shows.
	SummaryBars = 10

	summaryYTicks   = 6
	summaryPadding  = 0.2
	summaryEmptyMax = 100.0
)

const EmptySummaryMessage = "No data"

// SummaryRenderer draws the bar view over the most recent samples.
type SummaryRenderer struct {
	Bars   int
	Layout Layout
}

func NewSummaryRenderer() *SummaryRenderer {
	return &SummaryRenderer{
		Bars: SummaryBars,
		Layout: Layout{
			Margins:  DefaultMargins,
			Fallback: Size{W: 320, H: 300},
			Labels:   true,
		},
	}
}

// Recent returns the last min(Bars, len(snap)) samples.
func (r *SummaryRenderer) Recent(snap []vitals.Sample) []vitals.Sample {
	k := r.Bars
	if k <= 0 {
		k = SummaryBars
	}
	if len(snap) < k {
		return snap
	}
	return snap[len(snap)-k:]
}

// YMax rounds the tallest bar up to the next multiple of ten. Empty or
// non-positive data falls back to 100 so the scale is never degenerate.
func YMax(bars []vitals.Sample) float64 {
	hi := math.Inf(-1)
	for _, s := range bars {
		hi = math.Max(hi, s.Value)
	}
	if len(bars) == 0 || hi <= 0 {
		return summaryEmptyMax
	}
	return math.Ceil(hi/10) * 10
}

// Render builds the bar frame. The viewport is accepted for symmetry with the
// chart and may be nil; bars do not zoom.
func (r *SummaryRenderer) Render(snap []vitals.Sample, size Size, _ *Viewport, highlight string) Frame {
	region, plot := r.Layout.resolve(size)
	m := r.Layout.Margins
	bars := r.Recent(snap)

	band := Band{N: len(bars), R0: 0, R1: plot.W, Padding: summaryPadding}
	ys := Linear{D0: 0, D1: YMax(bars), R0: plot.H, R1: 0}

	var xTicks, yTicks []tick
	for i := range bars {
		xTicks = append(xTicks, tick{pos: band.Pos(i) + band.Width()/2, label: strconv.Itoa(i + 1)})
	}
	for _, v := range ys.Ticks(summaryYTicks) {
		yTicks = append(yTicks, tick{pos: ys.Map(v), label: formatNum(v)})
	}

	f := Frame{Width: region.W, Height: region.H, Empty: len(bars) == 0}
	f.Commands = append(f.Commands, r.Layout.labels(region, plot, "Recent Heart Rate (Bar Chart)", "Recent Points", "Heart Rate (bpm)")...)

	origin := Translate(m.Left, m.Top)
	g := Group{Transform: origin, Children: r.Layout.axes(plot, xTicks, yTicks)}
	for i, s := range bars {
		key := fmt.Sprintf("bars/%d", s.Seq)
		fill := ColorBarIn
		if vitals.OutOfRange(s.Value) {
			fill = ColorBarOut
		}
		top := ys.Map(math.Max(0, s.Value))
		rect := Rect{X: band.Pos(i), Y: top, W: band.Width(), H: plot.H - top, Key: key,
			Style: highlightStyle(Style{Fill: fill}, key == highlight)}
		g.Children = append(g.Children, rect)

		p := origin.Apply(Point{X: rect.X, Y: rect.Y})
		f.Targets = append(f.Targets, Target{
			Key:  key,
			Text: fmt.Sprintf("Value: %s bpm\nBar: %d", formatNum(s.Value), i+1),
			X:    p.X, Y: p.Y, W: rect.W, H: rect.H,
		})
	}
	f.Commands = append(f.Commands, g)

	if f.Empty {
		f.Commands = append(f.Commands, Text{X: m.Left + plot.W/2, Y: m.Top + plot.H/2, Body: EmptySummaryMessage,
			Size: r.Layout.fontSize(), Color: ColorMuted, Anchor: AnchorMiddle})
	}
	return f
}
