package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"math"
	"strings"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/saveugene/pulsedash/internal/alert"
	"github.com/saveugene/pulsedash/internal/dashboard"
	"github.com/saveugene/pulsedash/internal/render"
	"github.com/saveugene/pulsedash/internal/stats"
	"github.com/saveugene/pulsedash/internal/vitals"
)

// Braille cells hold 2x4 dots; frames are laid out in dots.
const (
	dotsX = 2
	dotsY = 4

	termPan  = 8.0
	termZoom = 1.25
)

func termColor(hex string) ui.Color {
	switch hex {
	case render.ColorLine:
		return ui.ColorBlue
	case render.ColorPointIn:
		return ui.ColorCyan
	case render.ColorPointOut, render.ColorBarOut:
		return ui.ColorRed
	case render.ColorBrush:
		return ui.ColorYellow
	case render.ColorMuted, render.ColorGrid:
		return ui.Color(8)
	}
	return ui.ColorWhite
}

// Compact layouts measured in dots.
func termChart() *render.ChartRenderer {
	r := render.NewChartRenderer()
	r.Layout = render.Layout{
		Margins:  render.Margins{Top: 4, Right: 4, Bottom: 12, Left: 16},
		Fallback: render.Size{W: 160, H: 80},
		FontSize: dotsY,
		Radius:   1,
	}
	return r
}

func termBars() *render.SummaryRenderer {
	r := render.NewSummaryRenderer()
	r.Layout = render.Layout{
		Margins:  render.Margins{Top: 4, Right: 2, Bottom: 12, Left: 12},
		Fallback: render.Size{W: 80, H: 80},
		FontSize: dotsY,
	}
	return r
}

// frameView replays a render.Frame onto a braille canvas.
type frameView struct {
	ui.Block
	frame render.Frame
}

func newFrameView(title string) *frameView {
	v := &frameView{Block: *ui.NewBlock()}
	v.Title = title
	return v
}

// dots is the drawable area in frame units.
func (v *frameView) dots() render.Size {
	return render.Size{W: float64(v.Inner.Dx() * dotsX), H: float64(v.Inner.Dy() * dotsY)}
}

// toFrame maps a terminal cell to the frame point at its centre.
func (v *frameView) toFrame(x, y int) (float64, float64, bool) {
	p := image.Pt(x, y)
	if !p.In(v.Inner) {
		return 0, 0, false
	}
	return float64((x-v.Inner.Min.X)*dotsX + 1), float64((y-v.Inner.Min.Y)*dotsY + 2), true
}

type dotter struct {
	canvas *ui.Canvas
	origin image.Point
	bounds image.Rectangle
}

func (d dotter) set(x, y float64, c ui.Color) {
	p := image.Pt(d.origin.X+int(math.Round(x)), d.origin.Y+int(math.Round(y)))
	if p.In(d.bounds) {
		d.canvas.SetPoint(p, c)
	}
}

func (d dotter) line(a, b render.Point, c ui.Color) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps == 0 {
		d.set(a.X, a.Y, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		d.set(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t, c)
	}
}

func (d dotter) fill(a, b render.Point, c ui.Color) {
	for y := math.Round(a.Y); y < b.Y; y++ {
		for x := math.Round(a.X); x < b.X; x++ {
			d.set(x, y, c)
		}
	}
}

func (d dotter) outline(a, b render.Point, c ui.Color) {
	d.line(a, render.Point{X: b.X, Y: a.Y}, c)
	d.line(render.Point{X: b.X, Y: a.Y}, b, c)
	d.line(b, render.Point{X: a.X, Y: b.Y}, c)
	d.line(render.Point{X: a.X, Y: b.Y}, a, c)
}

type placedText struct {
	at   render.Point
	text render.Text
}

func (v *frameView) Draw(buf *ui.Buffer) {
	v.Block.Draw(buf)

	canvas := ui.NewCanvas()
	canvas.Rectangle = v.Inner
	d := dotter{
		canvas: canvas,
		origin: image.Pt(v.Inner.Min.X*dotsX, v.Inner.Min.Y*dotsY),
		bounds: image.Rect(v.Inner.Min.X*dotsX, v.Inner.Min.Y*dotsY, v.Inner.Max.X*dotsX, v.Inner.Max.Y*dotsY),
	}

	var texts []placedText
	render.Walk(v.frame.Commands, render.Identity, func(cmd render.Command, t render.Transform) {
		switch c := cmd.(type) {
		case render.Line:
			// Dashed gridlines are too dense at braille resolution.
			if len(c.Dash) > 0 {
				return
			}
			d.line(t.Apply(render.Point{X: c.X1, Y: c.Y1}), t.Apply(render.Point{X: c.X2, Y: c.Y2}), termColor(c.Stroke))
		case render.Polyline:
			for i := 1; i < len(c.Points); i++ {
				d.line(t.Apply(c.Points[i-1]), t.Apply(c.Points[i]), termColor(c.Stroke))
			}
		case render.Circle:
			p := t.Apply(render.Point{X: c.X, Y: c.Y})
			r := math.Max(0, c.R*t.K-1)
			if c.Stroke != "" {
				r++
			}
			d.fill(render.Point{X: p.X - r, Y: p.Y - r}, render.Point{X: p.X + r + 1, Y: p.Y + r + 1}, termColor(c.Fill))
		case render.Rect:
			a := t.Apply(render.Point{X: c.X, Y: c.Y})
			b := t.Apply(render.Point{X: c.X + c.W, Y: c.Y + c.H})
			if c.Fill == render.ColorBrush {
				d.outline(a, b, termColor(c.Fill))
				return
			}
			d.fill(a, b, termColor(c.Fill))
			if c.Stroke != "" {
				d.outline(a, b, termColor(c.Stroke))
			}
		case render.Text:
			if c.Rotation != 0 {
				return
			}
			texts = append(texts, placedText{at: t.Apply(render.Point{X: c.X, Y: c.Y}), text: c})
		}
	})
	canvas.Draw(buf)

	for _, pt := range texts {
		width := runewidth.StringWidth(pt.text.Body)
		x := v.Inner.Min.X + int(pt.at.X)/dotsX
		switch pt.text.Anchor {
		case render.AnchorMiddle:
			x -= width / 2
		case render.AnchorEnd:
			x -= width
		}
		y := v.Inner.Min.Y + int(math.Max(0, pt.at.Y-1))/dotsY
		if y < v.Inner.Min.Y || y >= v.Inner.Max.Y {
			continue
		}
		style := ui.NewStyle(termColor(pt.text.Color))
		if pt.text.Bold {
			style.Modifier = ui.ModifierBold
		}
		for _, r := range pt.text.Body {
			if x >= v.Inner.Min.X && x < v.Inner.Max.X {
				buf.SetCell(ui.NewCell(r, style), image.Pt(x, y))
			}
			x += runewidth.RuneWidth(r)
		}
	}
}

// termSurface hosts the dashboard in termui widgets. Widgets are positioned
// with SetRect so region sizes are known before the first draw.
type termSurface struct {
	chart, bars *frameView
	stats       *widgets.Table
	timer       *widgets.Paragraph
	alert       *widgets.Paragraph
	legend      *widgets.Paragraph
	hint        *widgets.Paragraph
	statusBar   *widgets.Paragraph

	hintOn              bool
	start, stop, export bool
	notice              string
	brushing            bool
	brushFrom           *float64
}

func newTermSurface() *termSurface {
	s := &termSurface{
		chart:     newFrameView(" Real-Time Heart Rate (bpm) "),
		bars:      newFrameView(" Recent Heart Rate "),
		stats:     widgets.NewTable(),
		timer:     widgets.NewParagraph(),
		alert:     widgets.NewParagraph(),
		legend:    widgets.NewParagraph(),
		hint:      widgets.NewParagraph(),
		statusBar: widgets.NewParagraph(),
	}
	s.stats.Title = " Summary "
	s.stats.TextStyle = ui.NewStyle(ui.ColorWhite)
	s.stats.RowSeparator = true
	s.stats.TextAlignment = ui.AlignCenter
	s.stats.RowStyles = map[int]ui.Style{
		0: ui.NewStyle(ui.ColorYellow, ui.ColorClear, ui.ModifierBold),
	}

	s.timer.Title = " Session "
	s.alert.Title = " Alert "
	s.legend.Title = " Legend "
	s.legend.Text = "[━━](fg:blue) Current Heart Rate  [●](fg:cyan) In range  [●](fg:red) Out-of-Range\n" +
		fmt.Sprintf("Safe zone %g-%g %s", vitals.SafeMin, vitals.SafeMax, vitals.Unit)
	s.hint.TitleStyle = ui.NewStyle(ui.ColorCyan)
	s.statusBar.Border = false
	s.statusBar.TextStyle = ui.NewStyle(ui.ColorWhite)
	return s
}

func (s *termSurface) layout(w, h int) {
	top := (h - 1) * 62 / 100
	split := w * 68 / 100
	s.chart.SetRect(0, 0, split, top)
	s.bars.SetRect(split, 0, w, top)

	half := w * 45 / 100
	s.stats.SetRect(0, top, half, h-1)
	s.timer.SetRect(half, top, w, top+3)
	s.alert.SetRect(half, top+3, w, top+6)
	s.legend.SetRect(half, top+6, w, h-1)
	s.statusBar.SetRect(0, h-1, w, h)
}

func (s *termSurface) view(r dashboard.Region) *frameView {
	if r == dashboard.RegionBars {
		return s.bars
	}
	return s.chart
}

func (s *termSurface) Size(r dashboard.Region) render.Size { return s.view(r).dots() }

func (s *termSurface) Draw(r dashboard.Region, f render.Frame) { s.view(r).frame = f }

func (s *termSurface) ShowEmpty(empty bool) {
	if empty {
		s.chart.TitleStyle = ui.NewStyle(ui.Color(8))
		return
	}
	s.chart.TitleStyle = ui.Theme.Block.Title
}

func (s *termSurface) ShowStats(st stats.Snapshot) {
	s.stats.Rows = [][]string{
		{"Current", "Average", "Min", "Max"},
		{bpm(st.Current), bpm(st.Average), bpm(st.Min), bpm(st.Max)},
	}
}

func bpm(v stats.Value) string {
	if !v.Valid() {
		return v.String()
	}
	return v.String() + " bpm"
}

func (s *termSurface) ShowTimer(sec int) {
	s.timer.Text = " " + dashboard.FormatTimer(sec)
}

func (s *termSurface) ShowAlert(a alert.State) {
	if !a.Active {
		s.alert.Text = ""
		s.alert.BorderStyle = ui.Theme.Block.Border
		return
	}
	s.alert.Text = fmt.Sprintf(" [⚠ %s](fg:red,mod:bold)", a.Message)
	s.alert.BorderStyle = ui.NewStyle(ui.ColorRed)
}

func (s *termSurface) ShowHint(h render.Hint, visible bool) {
	s.hintOn = visible
	if !visible {
		return
	}
	v := s.view(dashboard.Region(h.Source))
	lines := strings.Split(h.Text, "\n")
	width := 0
	for _, l := range lines {
		width = max(width, runewidth.StringWidth(l))
	}
	x := v.Inner.Min.X + int(h.X)/dotsX
	y := v.Inner.Min.Y + int(math.Max(0, h.Y))/dotsY
	s.hint.Text = h.Text
	s.hint.SetRect(x, y, x+width+2, y+len(lines)+2)
}

func (s *termSurface) SetEnabled(start, stop, export bool) {
	s.start, s.stop, s.export = start, stop, export
}

func (s *termSurface) status() string {
	key := func(k, label string, on bool) string {
		if on {
			return fmt.Sprintf("[%s](fg:green) %s", k, label)
		}
		return k + " " + label
	}
	parts := []string{
		fmt.Sprintf("[%s](fg:cyan)", time.Now().Format("15:04:05")),
		key("s", "start", s.start),
		key("x", "stop", s.stop),
		key("e", "export", s.export),
		"+/- zoom  arrows pan  b brush  r reset  q quit",
	}
	if s.brushing {
		parts = append(parts, "[brush: click two edges](fg:yellow)")
	}
	if s.notice != "" {
		parts = append(parts, s.notice)
	}
	return " " + strings.Join(parts, " | ")
}

func (s *termSurface) render() {
	s.statusBar.Text = s.status()
	items := []ui.Drawable{s.chart, s.bars, s.stats, s.timer, s.alert, s.legend, s.statusBar}
	if s.hintOn {
		items = append(items, s.hint)
	}
	ui.Render(items...)
}

// regionAt finds the frame view under a terminal cell.
func (s *termSurface) regionAt(x, y int) (dashboard.Region, float64, float64, bool) {
	if fx, fy, ok := s.chart.toFrame(x, y); ok {
		return dashboard.RegionChart, fx, fy, true
	}
	if fx, fy, ok := s.bars.toFrame(x, y); ok {
		return dashboard.RegionBars, fx, fy, true
	}
	return "", 0, 0, false
}

func runTerm(args []string) {
	fs := flag.NewFlagSet("term", flag.ExitOnError)
	opts := addCommonFlags(fs, "pulsedash.log")
	fs.Parse(args)

	cfg, err := loadConfig(fs, opts)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger("pulsedash-term", cfg)
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	if err := ui.Init(); err != nil {
		log.Fatalf("failed to init termui: %v", err)
	}
	defer ui.Close()

	surf := newTermSurface()
	termWidth, termHeight := ui.TerminalDimensions()
	surf.layout(termWidth, termHeight)

	ctrl := dashboard.New(dashboard.Options{
		Source:   cfg.NewSource(logger),
		Surface:  surf,
		Controls: surf,
		Logger:   logger,
		Chart:    termChart(),
		Bars:     termBars(),
	})
	logger.Info("terminal dashboard ready", zap.String("source", cfg.Source.Kind))
	surf.render()

	uiEvents := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			ctrl.Stop()
			return
		case ev, ok := <-ctrl.Inbound():
			if !ok {
				ctrl.OnTransportLost(nil)
				break
			}
			ctrl.OnMessage(ev)
		case e := <-uiEvents:
			if quit := handleTermEvent(ctx, e, ctrl, surf, cfg.Export.Path, logger); quit {
				ctrl.Stop()
				return
			}
		}
		surf.render()
	}
}

// handleTermEvent applies one key or mouse event. It reports whether the
// user asked to quit.
func handleTermEvent(ctx context.Context, e ui.Event, ctrl *dashboard.Controller, surf *termSurface, exportPath string, logger *zap.Logger) bool {
	display := ctrl.Display()
	plot := termChart().Layout.PlotSize(surf.chart.dots())
	m := termChart().Layout.Margins
	cx, cy := m.Left+plot.W/2, m.Top+plot.H/2

	switch e.ID {
	case "q", "<C-c>":
		return true
	case "s":
		surf.notice = ""
		if err := ctrl.Start(ctx); err != nil {
			surf.notice = fmt.Sprintf("[start failed: %v](fg:red)", err)
			logger.Warn("start failed", zap.Error(err))
		}
	case "x":
		ctrl.Stop()
	case "e":
		err := ctrl.Export(exportPath)
		switch {
		case errors.Is(err, dashboard.ErrSessionActive):
			surf.notice = "[stop the session before exporting](fg:yellow)"
		case err != nil:
			surf.notice = fmt.Sprintf("[export failed: %v](fg:red)", err)
			logger.Warn("export failed", zap.Error(err))
		default:
			surf.notice = fmt.Sprintf("saved [%s](fg:green)", exportPath)
		}
	case "+", "=":
		display.ZoomAt(termZoom, cx, cy)
	case "-", "_":
		display.ZoomAt(1/termZoom, cx, cy)
	case "<Left>":
		display.Pan(termPan, 0)
	case "<Right>":
		display.Pan(-termPan, 0)
	case "<Up>":
		display.Pan(0, termPan)
	case "<Down>":
		display.Pan(0, -termPan)
	case "b":
		surf.brushing, surf.brushFrom = !surf.brushing, nil
	case "c":
		display.ClearBrush()
	case "r":
		surf.brushing, surf.brushFrom = false, nil
		display.ResetView()
	case "<Escape>":
		display.Leave()
	case "<MouseLeft>":
		mouse := e.Payload.(ui.Mouse)
		region, fx, fy, ok := surf.regionAt(mouse.X, mouse.Y)
		if !ok {
			display.Leave()
			break
		}
		if surf.brushing && region == dashboard.RegionChart {
			if surf.brushFrom == nil {
				surf.brushFrom = &fx
				break
			}
			display.Brush(*surf.brushFrom, fx)
			surf.brushing, surf.brushFrom = false, nil
			break
		}
		display.Hover(region, fx, fy)
	case "<MouseWheelUp>", "<MouseWheelDown>":
		mouse := e.Payload.(ui.Mouse)
		region, fx, fy, ok := surf.regionAt(mouse.X, mouse.Y)
		if !ok || region != dashboard.RegionChart {
			break
		}
		factor := termZoom
		if e.ID == "<MouseWheelDown>" {
			factor = 1 / termZoom
		}
		display.ZoomAt(factor, fx, fy)
	case "<Resize>":
		payload := e.Payload.(ui.Resize)
		surf.layout(payload.Width, payload.Height)
		ui.Clear()
		display.Resize()
	}
	return false
}
