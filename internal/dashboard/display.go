package dashboard

import (
	"fmt"

	"github.com/saveugene/pulsedash/internal/alert"
	"github.com/saveugene/pulsedash/internal/render"
	"github.com/saveugene/pulsedash/internal/stats"
	"github.com/saveugene/pulsedash/internal/vitals"
)

// Region names a viewport of the rendering host.
type Region string

const (
	RegionChart Region = "chart"
	RegionBars  Region = "bars"
)

// Surface is the rendering host: two addressable regions plus the panels.
// Size may report zero dimensions; renderers fall back to defaults.
type Surface interface {
	Size(Region) render.Size
	Draw(Region, render.Frame)
	ShowEmpty(empty bool)
	ShowStats(stats.Snapshot)
	ShowTimer(seconds int)
	ShowAlert(alert.State)
	ShowHint(h render.Hint, visible bool)
}

// Display re-derives every view from the latest snapshot. Interaction
// (resize, zoom, brush, hover) re-renders from the cached snapshot and never
// touches the sample window.
type Display struct {
	surface Surface
	chart   *render.ChartRenderer
	bars    *render.SummaryRenderer
	view    *render.Viewport
	tooltip *render.Tooltip

	snap   []vitals.Sample
	frames map[Region]render.Frame
}

func NewDisplay(surface Surface, chart *render.ChartRenderer, bars *render.SummaryRenderer) *Display {
	if chart == nil {
		chart = render.NewChartRenderer()
	}
	if bars == nil {
		bars = render.NewSummaryRenderer()
	}
	return &Display{
		surface: surface,
		chart:   chart,
		bars:    bars,
		view:    render.NewViewport(),
		tooltip: &render.Tooltip{},
		frames:  make(map[Region]render.Frame, 2),
	}
}

// Update replaces the cached snapshot and redraws both regions.
func (d *Display) Update(snap []vitals.Sample) {
	d.snap = snap
	d.Redraw()
}

// Redraw renders the chart, then the bars, then the empty state and hint.
// Safe to call repeatedly: each call rebuilds its output from scratch.
func (d *Display) Redraw() {
	hl := d.tooltip.Highlighted()

	size := d.surface.Size(RegionChart)
	plot := d.chart.Layout.PlotSize(size)
	d.view.SetBounds(plot.W, plot.H)
	d.frames[RegionChart] = d.chart.Render(d.snap, size, d.view, hl)
	d.surface.Draw(RegionChart, d.frames[RegionChart])

	d.frames[RegionBars] = d.bars.Render(d.snap, d.surface.Size(RegionBars), nil, hl)
	d.surface.Draw(RegionBars, d.frames[RegionBars])

	d.surface.ShowEmpty(len(d.snap) == 0)
	d.syncHint()
	d.surface.ShowHint(d.tooltip.Current())
}

// syncHint keeps the hint on the sample it was opened for: its text follows
// the sample's new position and it closes once the sample leaves the view.
func (d *Display) syncHint() {
	h, ok := d.tooltip.Current()
	if !ok {
		return
	}
	t, found := d.frames[Region(h.Source)].Target(h.Key)
	if !found {
		d.tooltip.Hide()
		return
	}
	d.tooltip.SetText(t.Text)
}

// Panels refreshes the numeric panels.
func (d *Display) Panels(s stats.Snapshot, timer int, a alert.State) {
	d.surface.ShowStats(s)
	d.surface.ShowTimer(timer)
	d.surface.ShowAlert(a)
}

// Resize redraws after the host changed region dimensions.
func (d *Display) Resize() { d.Redraw() }

// toPlot converts region pixels into chart plot pixels.
func (d *Display) toPlot(x, y float64) (float64, float64) {
	m := d.chart.Layout.Margins
	return x - m.Left, y - m.Top
}

// ZoomAt scales the chart data group around region point (x, y).
func (d *Display) ZoomAt(factor, x, y float64) {
	px, py := d.toPlot(x, y)
	d.view.ZoomAt(factor, px, py)
	d.Redraw()
}

func (d *Display) Pan(dx, dy float64) {
	d.view.Pan(dx, dy)
	d.Redraw()
}

// Brush selects the region pixel interval [x0, x1] on the chart.
func (d *Display) Brush(x0, x1 float64) {
	p0, _ := d.toPlot(x0, 0)
	p1, _ := d.toPlot(x1, 0)
	d.view.SetBrush(p0, p1)
	d.Redraw()
}

func (d *Display) ClearBrush() {
	d.view.ClearBrush()
	d.Redraw()
}

// ResetView drops zoom and brush.
func (d *Display) ResetView() {
	d.view.Reset()
	d.Redraw()
}

// Hover hit-tests region r at (x, y) and updates the shared hint.
func (d *Display) Hover(r Region, x, y float64) error {
	f, ok := d.frames[r]
	if !ok {
		return fmt.Errorf("unknown region %q", r)
	}
	if render.Hover(f, string(r), x, y, d.tooltip, d.tooltip.Highlighted()) {
		d.Redraw()
		return nil
	}
	d.surface.ShowHint(d.tooltip.Current())
	return nil
}

// Leave hides the hint when the pointer leaves a region.
func (d *Display) Leave() {
	had := d.tooltip.Highlighted() != ""
	d.tooltip.Hide()
	if had {
		d.Redraw()
		return
	}
	d.surface.ShowHint(d.tooltip.Current())
}

// Frame returns the last frame drawn for r.
func (d *Display) Frame(r Region) (render.Frame, bool) {
	f, ok := d.frames[r]
	return f, ok
}

// Hint returns the shared tooltip state.
func (d *Display) Hint() (render.Hint, bool) {
	return d.tooltip.Current()
}

// Selection is the brushed domain interval, if any.
func (d *Display) Selection() *render.Range {
	return d.frames[RegionChart].Selection
}
