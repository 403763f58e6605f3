package render

import (
	"strconv"
)

// Palette shared by both renderers.
const (
	ColorLine      = "#1976d2"
	ColorTitle     = "#1976d2"
	ColorInk       = "#222222"
	ColorGrid      = "#e0e0e0"
	ColorMuted     = "#b0bec5"
	ColorHighlight = "#1976d2"
	ColorBrush     = "#777777"

	ColorPointIn  = "#1CA7A7"
	ColorPointOut = "#d32f2f"
	ColorBarIn    = "#1CA7A7"
	ColorBarOut   = "#FF6F61"
)

type Size struct {
	W, H float64
}

type Margins struct {
	Top, Right, Bottom, Left float64
}

// Layout positions the plot area inside a viewport region.
type Layout struct {
	Margins  Margins
	Fallback Size // used for any dimension reported as <= 0
	Labels   bool // draw title and axis labels
	FontSize float64
	Radius   float64 // point marker radius
}

var DefaultMargins = Margins{Top: 60, Right: 40, Bottom: 60, Left: 80}

// resolve applies the fallback size and returns the plot area size, which is
// never below one pixel.
func (l Layout) resolve(s Size) (Size, Size) {
	if s.W <= 0 {
		s.W = l.Fallback.W
	}
	if s.H <= 0 {
		s.H = l.Fallback.H
	}
	plot := Size{
		W: s.W - l.Margins.Left - l.Margins.Right,
		H: s.H - l.Margins.Top - l.Margins.Bottom,
	}
	if plot.W < 1 {
		plot.W = 1
	}
	if plot.H < 1 {
		plot.H = 1
	}
	return s, plot
}

// PlotSize returns the plot area for a region of the given size.
func (l Layout) PlotSize(s Size) Size {
	_, plot := l.resolve(s)
	return plot
}

func (l Layout) fontSize() float64 {
	if l.FontSize <= 0 {
		return 14
	}
	return l.FontSize
}

// tick is one axis tick in plot coordinates.
type tick struct {
	pos   float64
	label string
}

var (
	gridStyle   = Style{Stroke: ColorGrid, StrokeWidth: 1, Dash: []float64{2, 2}}
	domainStyle = Style{Stroke: ColorInk, StrokeWidth: 2}
)

// axes draws gridlines, axis lines and tick labels for a plot of the given
// size. Gridlines come first so data is drawn over them.
func (l Layout) axes(plot Size, xTicks, yTicks []tick) []Command {
	fs := l.fontSize()
	var cmds []Command
	for _, t := range xTicks {
		cmds = append(cmds, Line{X1: t.pos, Y1: 0, X2: t.pos, Y2: plot.H, Style: gridStyle})
	}
	for _, t := range yTicks {
		cmds = append(cmds, Line{X1: 0, Y1: t.pos, X2: plot.W, Y2: t.pos, Style: gridStyle})
	}
	cmds = append(cmds,
		Line{X1: 0, Y1: plot.H, X2: plot.W, Y2: plot.H, Style: domainStyle},
		Line{X1: 0, Y1: 0, X2: 0, Y2: plot.H, Style: domainStyle},
	)
	for _, t := range xTicks {
		if t.label == "" {
			continue
		}
		cmds = append(cmds, Text{X: t.pos, Y: plot.H + fs + 6, Body: t.label, Size: fs, Color: ColorInk, Anchor: AnchorMiddle, Bold: true})
	}
	for _, t := range yTicks {
		cmds = append(cmds, Text{X: -9, Y: t.pos + fs/3, Body: t.label, Size: fs, Color: ColorInk, Anchor: AnchorEnd, Bold: true})
	}
	return cmds
}

// labels draws the title and both axis labels in region coordinates.
func (l Layout) labels(region, plot Size, title, xLabel, yLabel string) []Command {
	if !l.Labels {
		return nil
	}
	fs := l.fontSize()
	m := l.Margins
	yx, yy := m.Left/3, m.Top+plot.H/2
	return []Command{
		Text{X: region.W / 2, Y: m.Top - 18, Body: title, Size: fs * 1.25, Color: ColorTitle, Anchor: AnchorMiddle, Bold: true},
		Text{X: yx, Y: yy, Body: yLabel, Size: fs, Color: ColorInk, Anchor: AnchorMiddle, Bold: true, Rotation: -90},
		Text{X: m.Left + plot.W/2, Y: region.H - m.Bottom/4, Body: xLabel, Size: fs, Color: ColorInk, Anchor: AnchorMiddle, Bold: true},
	}
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func highlightStyle(s Style, on bool) Style {
	if on {
		s.Stroke = ColorHighlight
		s.StrokeWidth = 2.5
	}
	return s
}
