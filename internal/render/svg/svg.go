// Package svg replays render frames onto a go-chart SVG renderer.
package svg

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/saveugene/pulsedash/internal/render"
)

var (
	fontOnce sync.Once
	font     *truetype.Font
	fontErr  error
)

func defaultFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		font, fontErr = chart.GetDefaultFont()
	})
	return font, fontErr
}

// Encode writes f as an SVG document.
func Encode(w io.Writer, f render.Frame) error {
	width, height := int(math.Round(f.Width)), int(math.Round(f.Height))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("svg: invalid frame size %dx%d", width, height)
	}
	r, err := chart.SVG(width, height)
	if err != nil {
		return fmt.Errorf("svg renderer: %w", err)
	}
	fnt, err := defaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}

	render.Walk(f.Commands, render.Identity, func(c render.Command, t render.Transform) {
		r.ResetStyle()
		r.SetFont(fnt)
		draw(r, c, t)
	})
	return r.Save(w)
}

func draw(r chart.Renderer, c render.Command, t render.Transform) {
	switch c := c.(type) {
	case render.Line:
		a := t.Apply(render.Point{X: c.X1, Y: c.Y1})
		b := t.Apply(render.Point{X: c.X2, Y: c.Y2})
		setStroke(r, c.Style)
		r.MoveTo(px(a.X), px(a.Y))
		r.LineTo(px(b.X), px(b.Y))
		r.Stroke()
	case render.Polyline:
		if len(c.Points) < 2 {
			return
		}
		setStroke(r, c.Style)
		for i, p := range c.Points {
			p = t.Apply(p)
			if i == 0 {
				r.MoveTo(px(p.X), px(p.Y))
				continue
			}
			r.LineTo(px(p.X), px(p.Y))
		}
		r.Stroke()
	case render.Circle:
		p := t.Apply(render.Point{X: c.X, Y: c.Y})
		setStroke(r, c.Style)
		setFill(r, c.Style)
		r.Circle(c.R, px(p.X), px(p.Y))
	case render.Rect:
		a := t.Apply(render.Point{X: c.X, Y: c.Y})
		b := t.Apply(render.Point{X: c.X + c.W, Y: c.Y + c.H})
		setStroke(r, c.Style)
		setFill(r, c.Style)
		r.MoveTo(px(a.X), px(a.Y))
		r.LineTo(px(b.X), px(a.Y))
		r.LineTo(px(b.X), px(b.Y))
		r.LineTo(px(a.X), px(b.Y))
		r.Close()
		switch {
		case c.Fill != "" && c.Stroke != "":
			r.FillStroke()
		case c.Fill != "":
			r.Fill()
		default:
			r.Stroke()
		}
	case render.Text:
		p := t.Apply(render.Point{X: c.X, Y: c.Y})
		r.SetFontSize(c.Size * 0.75) // go-chart sizes text in points
		r.SetFontColor(color(c.Color))
		x := p.X
		switch c.Anchor {
		case render.AnchorMiddle:
			x -= float64(r.MeasureText(c.Body).Width()) / 2
		case render.AnchorEnd:
			x -= float64(r.MeasureText(c.Body).Width())
		}
		if c.Rotation != 0 {
			r.SetTextRotation(c.Rotation * math.Pi / 180)
			defer r.ClearTextRotation()
		}
		r.Text(c.Body, px(x), px(p.Y))
	}
}

func setStroke(r chart.Renderer, s render.Style) {
	if s.Stroke == "" {
		return
	}
	r.SetStrokeColor(color(s.Stroke))
	r.SetStrokeWidth(s.StrokeWidth)
	if len(s.Dash) > 0 {
		r.SetStrokeDashArray(s.Dash)
	}
}

func setFill(r chart.Renderer, s render.Style) {
	if s.Fill == "" {
		return
	}
	fill := color(s.Fill)
	if s.Fill == render.ColorBrush {
		fill = fill.WithAlpha(77)
	}
	r.SetFillColor(fill)
}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func px(v float64) int {
	return int(math.Round(v))
}
